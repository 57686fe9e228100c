// Package pipeline chains cipher, bit packing, modulation and audio I/O into
// the encode and decode operations
package pipeline

import (
	"fmt"
	"log"
	"os"

	"fsk-steganography-backend/audio"
	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/crypto"
	"fsk-steganography-backend/fsk"
	"fsk-steganography-backend/models"
)

// EncodeBytes turns a payload into a carrier sampled at p.SampleRate().
func EncodeBytes(data []byte, p *fsk.Params, codec *bitpack.Codec, cipher crypto.Cipher) models.SampleBuffer {
	if cipher != nil {
		data = cipher.Encrypt(data)
	}
	return fsk.ModulateBuffer(codec.Encode(data), p)
}

// DecodeSamples recovers the payload from a carrier.
func DecodeSamples(samples []float64, demod *fsk.Demodulator, codec *bitpack.Codec, cipher crypto.Cipher) ([]byte, *fsk.Result, error) {
	res, err := demod.Demodulate(samples)
	if err != nil {
		return nil, nil, err
	}
	data, err := codec.Decode(res.Bits)
	if err != nil {
		return nil, res, err
	}
	if cipher != nil {
		data = cipher.Decrypt(data)
	}
	return data, res, nil
}

// Encode reads dataFile, modulates it and writes the carrier to encodedFile.
func Encode(helper audio.FileHelper, dataFile, encodedFile string, p *fsk.Params, key string) error {
	cipher, err := crypto.ForKey(key)
	if err != nil {
		return err
	}

	var bits bitpack.Bits
	if key == "" {
		bits, err = helper.ReadFile(dataFile)
		if err != nil {
			return err
		}
	} else {
		// the cipher works on bytes, so pack after encrypting
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dataFile, err)
		}
		codec, err := codecOf(helper)
		if err != nil {
			return err
		}
		bits = codec.Encode(cipher.Encrypt(raw))
	}

	carrier := fsk.ModulateBuffer(bits, p)
	log.Printf("Encoded %s: %d bits, %d samples at %d Hz", dataFile, len(bits), carrier.Len(), carrier.SampleRate)
	return helper.WriteAudio(encodedFile, carrier)
}

// Decode demodulates encodedFile and writes the recovered payload to decodedFile.
func Decode(helper audio.FileHelper, encodedFile, decodedFile string, demod *fsk.Demodulator, key string) (*fsk.Result, error) {
	cipher, err := crypto.ForKey(key)
	if err != nil {
		return nil, err
	}

	carrier, err := helper.ReadAudio(encodedFile)
	if err != nil {
		return nil, err
	}
	res, err := demod.Demodulate(carrier.Samples)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return res, helper.WriteFile(decodedFile, res.Bits)
	}

	codec, err := codecOf(helper)
	if err != nil {
		return nil, err
	}
	data, err := codec.Decode(res.Bits)
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(decodedFile, cipher.Decrypt(data), 0o644); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", decodedFile, err)
	}
	return res, nil
}

func codecOf(helper audio.FileHelper) (*bitpack.Codec, error) {
	if h, ok := helper.(interface{ Codec() *bitpack.Codec }); ok {
		return h.Codec(), nil
	}
	return bitpack.NewCodec(bitpack.DefaultPadSize)
}
