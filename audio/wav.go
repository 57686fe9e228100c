// Package audio reads and writes the sample buffers handled by the modem and the mixer
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"fsk-steganography-backend/models"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultBitDepth = 16

	wavFormatPCM     = 1
	descriptorPrefix = "fsk:"
	softwareTag      = "fsk-steganography-backend"
)

var (
	ErrMissingInput      = errors.New("missing input")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrBelowResolution   = errors.New("signal below PCM resolution")
)

func ValidateBitDepth(bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d bit PCM (use 8, 16, 24 or 32)", ErrUnsupportedFormat, bitDepth)
}

func fullScale(bitDepth int) float64 {
	return float64(int64(1) << uint(bitDepth-1))
}

// CheckAmplitude rejects a carrier amplitude that rounds to zero at bitDepth.
func CheckAmplitude(amplitude float64, bitDepth int) error {
	if err := ValidateBitDepth(bitDepth); err != nil {
		return err
	}
	if amplitude*fullScale(bitDepth) < 0.5 {
		return fmt.Errorf("%w: amplitude %g is under one step of %d bit PCM (need at least %g)",
			ErrBelowResolution, amplitude, bitDepth, 0.5/fullScale(bitDepth))
	}
	return nil
}

// EncodeWAV writes buf as mono PCM. info, when set, lands in the INFO chunk.
func EncodeWAV(buf models.SampleBuffer, bitDepth int, info *models.TrackInfo) ([]byte, error) {
	if err := ValidateBitDepth(bitDepth); err != nil {
		return nil, err
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", buf.SampleRate)
	}

	scale := fullScale(bitDepth)
	samples := make([]int, len(buf.Samples))
	signal, kept := false, false
	for i, s := range buf.Samples {
		signal = signal || s != 0
		v := math.Round(s * scale)
		kept = kept || v != 0
		if v > scale-1 {
			v = scale - 1
		}
		if v < -scale {
			v = -scale
		}
		if bitDepth == 8 {
			// 8 bit PCM is unsigned
			v += 128
		}
		samples[i] = int(v)
	}
	if signal && !kept {
		return nil, fmt.Errorf("%w: every sample rounds to zero at %d bit", ErrBelowResolution, bitDepth)
	}

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}

	// wav.NewEncoder needs a WriteSeeker
	tempFile, err := os.CreateTemp("", "fsk_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	encoder := wav.NewEncoder(tempFile, buf.SampleRate, bitDepth, 1, wavFormatPCM)
	if info != nil {
		encoder.Metadata = &wav.Metadata{
			Title:    info.Title,
			Artist:   info.Artist,
			Product:  info.Album,
			Genre:    info.Genre,
			Comments: info.Comment,
			Software: softwareTag,
		}
		if info.Year != "" {
			encoder.Metadata.CreationDate = info.Year
		}
	}

	if err := encoder.Write(intBuf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV data: %w", err)
	}
	wavData, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}
	return wavData, nil
}

// DecodeWAV reads PCM WAV data into normalized mono samples, averaging channels.
func DecodeWAV(data []byte) (models.SampleBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return models.SampleBuffer{}, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return models.SampleBuffer{}, fmt.Errorf("%w: WAV audio format %d, only PCM is supported",
			ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return models.SampleBuffer{}, fmt.Errorf("failed to decode WAV: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if err := ValidateBitDepth(bitDepth); err != nil {
		return models.SampleBuffer{}, err
	}
	channels := intBuf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	scale := fullScale(bitDepth)
	frames := len(intBuf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			v := float64(intBuf.Data[i*channels+c])
			if bitDepth == 8 {
				v -= 128
			}
			sum += v
		}
		samples[i] = sum / float64(channels) / scale
	}

	return models.SampleBuffer{
		Samples:    samples,
		SampleRate: intBuf.Format.SampleRate,
	}, nil
}

// FormatDescriptor renders d for the WAV INFO comment.
func FormatDescriptor(d models.EmbeddingDescriptor) string {
	return fmt.Sprintf("%swidth=%d;location=%s", descriptorPrefix, d.MessageWidth,
		strconv.FormatFloat(d.LocationSeconds, 'g', -1, 64))
}

// ParseDescriptor reads a comment written by FormatDescriptor.
func ParseDescriptor(comment string) (models.EmbeddingDescriptor, bool) {
	var d models.EmbeddingDescriptor
	idx := strings.Index(comment, descriptorPrefix)
	if idx < 0 {
		return d, false
	}

	var haveWidth, haveLocation bool
	for _, field := range strings.Split(strings.TrimSpace(comment[idx+len(descriptorPrefix):]), ";") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			w, err := strconv.Atoi(value)
			if err != nil {
				return d, false
			}
			d.MessageWidth, haveWidth = w, true
		case "location":
			l, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return d, false
			}
			d.LocationSeconds, haveLocation = l, true
		}
	}
	return d, haveWidth && haveLocation
}

// ReadDescriptor looks for an embedding descriptor in the INFO chunk of a mixed WAV.
func ReadDescriptor(data []byte) (models.EmbeddingDescriptor, bool) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadMetadata()
	if decoder.Metadata == nil {
		return models.EmbeddingDescriptor{}, false
	}
	return ParseDescriptor(decoder.Metadata.Comments)
}
