package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"fsk-steganography-backend/models"

	"github.com/bogem/id3v2/v2"
	"github.com/tosone/minimp3"
)

// DecodeMP3 decodes an MP3 host into normalized mono samples
func DecodeMP3(mp3Data []byte) (models.SampleBuffer, error) {
	stream, err := ScanMP3(mp3Data)
	if err != nil {
		return models.SampleBuffer{}, err
	}

	decoder, pcm, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return models.SampleBuffer{}, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer decoder.Close()

	channels := decoder.Channels
	if channels < 1 || decoder.SampleRate <= 0 {
		return models.SampleBuffer{}, fmt.Errorf("%w: MP3 stream without audio frames", ErrUnsupportedFormat)
	}

	if decoder.SampleRate != stream.SampleRate {
		log.Printf("Warning: frame headers say %d Hz, decoder reports %d Hz", stream.SampleRate, decoder.SampleRate)
	}

	// minimp3 hands back interleaved 16 bit little endian PCM
	frames := len(pcm) / 2 / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			sum += float64(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
		}
		samples[i] = sum / float64(channels) / 32768
	}

	return models.SampleBuffer{
		Samples:    samples,
		SampleRate: decoder.SampleRate,
	}, nil
}

// ReadTrackInfo reads the ID3v2 tag of an MP3 host, falling back to ID3v1.
// A file without either tag yields nil.
func ReadTrackInfo(mp3Data []byte) (*models.TrackInfo, error) {
	if !bytes.HasPrefix(mp3Data, []byte("ID3")) {
		return ReadID3v1(mp3Data), nil
	}
	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse ID3v2 tag: %w", err)
	}

	return &models.TrackInfo{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
		Genre:  tag.Genre(),
		Year:   tag.Year(),
	}, nil
}

func isMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DecodeAny picks the decoder from the content, falling back to the file extension
func DecodeAny(data []byte, filename string) (models.SampleBuffer, *models.TrackInfo, error) {
	switch {
	case isWAV(data):
		buf, err := DecodeWAV(data)
		return buf, nil, err
	case isMP3(data):
		return decodeMP3WithInfo(data)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		buf, err := DecodeWAV(data)
		return buf, nil, err
	case ".mp3":
		return decodeMP3WithInfo(data)
	}
	return models.SampleBuffer{}, nil, fmt.Errorf("%w: %s (only WAV and MP3 are supported)", ErrUnsupportedFormat, filename)
}

func decodeMP3WithInfo(data []byte) (models.SampleBuffer, *models.TrackInfo, error) {
	buf, err := DecodeMP3(data)
	if err != nil {
		return buf, nil, err
	}
	info, err := ReadTrackInfo(data)
	if err != nil {
		log.Printf("Warning: could not read MP3 metadata: %v", err)
		return buf, nil, nil
	}
	return buf, info, nil
}
