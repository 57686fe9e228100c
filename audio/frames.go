package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"fsk-steganography-backend/models"
)

const samplesPerLayer3Frame = 1152

// FrameHeader represents an MPEG-1 Layer III frame header
type FrameHeader struct {
	Bitrate     int
	SampleRate  int
	Padding     bool
	ChannelMode int
	FrameLength int
}

// MP3Stream summarizes the frames of an MP3 host
type MP3Stream struct {
	TagSize    int // ID3v2 bytes skipped before the first frame
	Frames     int
	SampleRate int
	Bitrate    int // of the first frame, bits per second
	Channels   int
}

// Duration returns the playing time in seconds
func (s *MP3Stream) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(s.Frames*samplesPerLayer3Frame) / float64(s.SampleRate)
}

// read syncsafe int for ID3v2 size
func syncSafeToInt(b []byte) int {
	return int(b[0]&0x7F)<<21 |
		int(b[1]&0x7F)<<14 |
		int(b[2]&0x7F)<<7 |
		int(b[3]&0x7F)
}

func id3v2Size(data []byte) int {
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return 0
	}
	return 10 + syncSafeToInt(data[6:10])
}

// ParseFrameHeader decodes the 4 header bytes at the start of b
func ParseFrameHeader(b []byte) (*FrameHeader, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: truncated frame header", ErrUnsupportedFormat)
	}
	header := binary.BigEndian.Uint32(b)

	if (header & 0xFFE00000) != 0xFFE00000 {
		return nil, fmt.Errorf("invalid sync word: 0x%08X", header)
	}

	versionID := (header >> 19) & 0x3
	layer := (header >> 17) & 0x3
	if versionID != 0x3 || layer != 0x1 {
		return nil, fmt.Errorf("%w: only MPEG-1 Layer III frames are supported", ErrUnsupportedFormat)
	}
	bitrateIdx := int((header >> 12) & 0xF)
	sampleRateIdx := int((header >> 10) & 0x3)
	padding := ((header >> 9) & 0x1) == 1
	channelMode := int((header >> 6) & 0x3)

	bitrateTable := [16]int{
		0, 32, 40, 48, 56, 64, 80, 96,
		112, 128, 160, 192, 224, 256, 320, 0,
	}
	sampleRateTable := [4]int{44100, 48000, 32000, 0}

	bitrate := bitrateTable[bitrateIdx] * 1000
	sampleRate := sampleRateTable[sampleRateIdx]
	if bitrate == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("%w: unsupported bitrate or samplerate", ErrUnsupportedFormat)
	}

	return &FrameHeader{
		Bitrate:     bitrate,
		SampleRate:  sampleRate,
		Padding:     padding,
		ChannelMode: channelMode,
		FrameLength: (144*bitrate)/sampleRate + btoi(padding),
	}, nil
}

// ScanMP3 walks the frame headers of data, resyncing over junk bytes
func ScanMP3(data []byte) (*MP3Stream, error) {
	s := &MP3Stream{TagSize: id3v2Size(data)}

	pos := s.TagSize
	for pos+4 <= len(data) {
		h, err := ParseFrameHeader(data[pos:])
		if err != nil {
			pos++
			continue
		}
		if pos+h.FrameLength > len(data) {
			break
		}
		if s.Frames == 0 {
			s.SampleRate = h.SampleRate
			s.Bitrate = h.Bitrate
			s.Channels = 2
			if h.ChannelMode == 3 {
				s.Channels = 1
			}
		}
		s.Frames++
		pos += h.FrameLength
	}

	if s.Frames == 0 {
		return nil, fmt.Errorf("%w: no MPEG audio frames found", ErrUnsupportedFormat)
	}
	return s, nil
}

// ReadID3v1 reads the 128 byte tag at the end of data, nil when absent
func ReadID3v1(data []byte) *models.TrackInfo {
	if len(data) < 128 {
		return nil
	}
	buf := data[len(data)-128:]
	if string(buf[:3]) != "TAG" {
		return nil
	}
	field := func(b []byte) string {
		return strings.TrimSpace(string(bytes.TrimRight(b, "\x00")))
	}
	return &models.TrackInfo{
		Title:   field(buf[3:33]),
		Artist:  field(buf[33:63]),
		Album:   field(buf[63:93]),
		Year:    field(buf[93:97]),
		Comment: field(buf[97:127]),
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
