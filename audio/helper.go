package audio

import (
	"fmt"
	"os"

	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/models"
	"fsk-steganography-backend/stego"
)

// FileHelper is the file level collaborator of the modem: audio and raw payload I/O
// plus hiding a carrier file inside a base file and taking it back out.
type FileHelper interface {
	WriteAudio(filename string, buf models.SampleBuffer) error
	ReadAudio(filename string) (models.SampleBuffer, error)
	WriteFile(filename string, bits bitpack.Bits) error
	ReadFile(filename string) (bitpack.Bits, error)
	Sum(baseFile, encodedFile, outputFile string, locationSeconds float64) (models.EmbeddingDescriptor, error)
	Sub(outputFile, baseFile, restoredFile string, desc models.EmbeddingDescriptor) error
}

// BinWav stores audio as PCM WAV and payloads as raw bytes packed by its codec.
type BinWav struct {
	codec    *bitpack.Codec
	mixer    *stego.Mixer
	bitDepth int
}

var _ FileHelper = (*BinWav)(nil)

func NewBinWav(codec *bitpack.Codec, mixer *stego.Mixer, bitDepth int) (*BinWav, error) {
	if err := ValidateBitDepth(bitDepth); err != nil {
		return nil, err
	}
	if codec == nil {
		c, err := bitpack.NewCodec(bitpack.DefaultPadSize)
		if err != nil {
			return nil, err
		}
		codec = c
	}
	if mixer == nil {
		mixer = stego.DefaultMixer()
	}
	return &BinWav{codec: codec, mixer: mixer, bitDepth: bitDepth}, nil
}

func (bw *BinWav) Codec() *bitpack.Codec { return bw.codec }
func (bw *BinWav) Mixer() *stego.Mixer   { return bw.mixer }
func (bw *BinWav) BitDepth() int         { return bw.bitDepth }

func (bw *BinWav) WriteAudio(filename string, buf models.SampleBuffer) error {
	return bw.writeWAV(filename, buf, nil)
}

func (bw *BinWav) writeWAV(filename string, buf models.SampleBuffer, info *models.TrackInfo) error {
	data, err := EncodeWAV(buf, bw.bitDepth, info)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func (bw *BinWav) ReadAudio(filename string) (models.SampleBuffer, error) {
	buf, _, err := bw.readAudio(filename)
	return buf, err
}

func (bw *BinWav) readAudio(filename string) (models.SampleBuffer, *models.TrackInfo, error) {
	if filename == "" {
		return models.SampleBuffer{}, nil, fmt.Errorf("%w: audio file path is empty", ErrMissingInput)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return models.SampleBuffer{}, nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return DecodeAny(data, filename)
}

// WriteFile unpacks bits into bytes and stores them.
func (bw *BinWav) WriteFile(filename string, bits bitpack.Bits) error {
	data, err := bw.codec.Decode(bits)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// ReadFile loads a payload and packs it into bits.
func (bw *BinWav) ReadFile(filename string) (bitpack.Bits, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: data file path is empty", ErrMissingInput)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return bw.codec.Encode(data), nil
}

// Sum hides encodedFile inside baseFile at locationSeconds and writes the mix to outputFile.
// The descriptor is returned and also written to the output INFO comment.
func (bw *BinWav) Sum(baseFile, encodedFile, outputFile string, locationSeconds float64) (models.EmbeddingDescriptor, error) {
	if baseFile == "" {
		return models.EmbeddingDescriptor{}, fmt.Errorf("%w: base file not found", ErrMissingInput)
	}

	host, info, err := bw.readAudio(baseFile)
	if err != nil {
		return models.EmbeddingDescriptor{}, err
	}
	payload, err := bw.ReadAudio(encodedFile)
	if err != nil {
		return models.EmbeddingDescriptor{}, err
	}

	mixed, desc, err := bw.mixer.Embed(host, payload, locationSeconds)
	if err != nil {
		return models.EmbeddingDescriptor{}, err
	}

	if info == nil {
		info = &models.TrackInfo{}
	}
	info.Comment = FormatDescriptor(desc)
	if err := bw.writeWAV(outputFile, mixed, info); err != nil {
		return models.EmbeddingDescriptor{}, err
	}
	return desc, nil
}

// Sub removes baseFile from outputFile and writes the carrier range named by desc to restoredFile.
func (bw *BinWav) Sub(outputFile, baseFile, restoredFile string, desc models.EmbeddingDescriptor) error {
	if baseFile == "" {
		return fmt.Errorf("%w: base file not found", ErrMissingInput)
	}

	host, err := bw.ReadAudio(baseFile)
	if err != nil {
		return err
	}
	mixed, err := bw.ReadAudio(outputFile)
	if err != nil {
		return err
	}

	restored, err := bw.mixer.Extract(mixed, host, desc)
	if err != nil {
		return err
	}
	return bw.WriteAudio(restoredFile, restored)
}
