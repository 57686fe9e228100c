package fsk

import (
	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/models"
)

// Modulate emits the bit 1 tone or the bit 0 tone for every bit, back to back.
func Modulate(bits bitpack.Bits, p *Params) []float64 {
	ss := len(p.timeAxis)
	samples := make([]float64, 0, len(bits)*ss)
	for _, bit := range bits {
		samples = append(samples, p.carrier(bit)...)
	}
	return samples
}

// ModulateBuffer is Modulate tagged with the carrier sample rate.
func ModulateBuffer(bits bitpack.Bits, p *Params) models.SampleBuffer {
	return models.SampleBuffer{
		Samples:    Modulate(bits, p),
		SampleRate: p.SampleRate(),
	}
}

func (p *Params) carrier(bit byte) []float64 {
	if bit == 1 {
		return p.refOne
	}
	return p.refZero
}
