// Package bitpack converts raw bytes to fixed-width bit groups and back
package bitpack

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

const (
	DefaultPadSize = 8
	MaxPadSize     = 64
)

var (
	ErrPartialGroup = errors.New("bit length is not a multiple of the pad size")
	ErrInvalidBit   = errors.New("invalid bit value")
	ErrPadSize      = errors.New("invalid pad size")
)

// Bits is an ordered bit sequence, one element per bit holding 0 or 1.
type Bits []byte

// ParseBits reads a string made of '0' and '1' characters.
func ParseBits(s string) (Bits, error) {
	bits := make(Bits, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			bits[i] = 0
		case '1':
			bits[i] = 1
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidBit, s[i], i)
		}
	}
	return bits, nil
}

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		if bit == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

type Codec struct {
	PadSize int
	// Strict makes Decode fail on a trailing partial group instead of dropping it.
	Strict bool
}

func NewCodec(padSize int) (*Codec, error) {
	if padSize < 1 || padSize > MaxPadSize {
		return nil, fmt.Errorf("%w: %d (choose between 1 and %d)", ErrPadSize, padSize, MaxPadSize)
	}
	if padSize < DefaultPadSize {
		log.Printf("Warning: using a pad size of %d can cause data loss", padSize)
	}
	return &Codec{PadSize: padSize}, nil
}

// Encode renders every byte MSB first on PadSize bits.
func (c *Codec) Encode(data []byte) Bits {
	bits := make(Bits, 0, len(data)*c.PadSize)
	for _, b := range data {
		v := uint64(b)
		for i := c.PadSize - 1; i >= 0; i-- {
			bits = append(bits, byte((v>>uint(i))&1))
		}
	}
	return bits
}

func (c *Codec) Decode(bits Bits) ([]byte, error) {
	rest := len(bits) % c.PadSize
	if rest != 0 {
		if c.Strict {
			return nil, fmt.Errorf("%w: %d bits, pad size %d", ErrPartialGroup, len(bits), c.PadSize)
		}
		log.Printf("Warning: dropping %d trailing bits that do not fill a group of %d", rest, c.PadSize)
	}

	data := make([]byte, 0, len(bits)/c.PadSize)
	for i := 0; i+c.PadSize <= len(bits); i += c.PadSize {
		var v uint64
		for j := 0; j < c.PadSize; j++ {
			bit := bits[i+j]
			if bit > 1 {
				return nil, fmt.Errorf("%w: %d at position %d", ErrInvalidBit, bit, i+j)
			}
			v = v<<1 | uint64(bit)
		}
		data = append(data, byte(v))
	}
	return data, nil
}
