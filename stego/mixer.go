// Package stego hides a carrier inside a host signal by additive mixing
package stego

import (
	"errors"
	"fmt"
	"math"

	"fsk-steganography-backend/models"
)

const DefaultMixRatio = 0.25

var (
	ErrChannelMismatch  = errors.New("sample rates differ")
	ErrCapacityExceeded = errors.New("payload does not fit in host")
	ErrLengthMismatch   = errors.New("mixed and host lengths differ")
	ErrMixRatio         = errors.New("invalid mix ratio")
)

// Mixer superimposes a payload at full scale on a host attenuated by Ratio.
type Mixer struct {
	Ratio float64
}

func NewMixer(ratio float64) (*Mixer, error) {
	if !(ratio > 0 && ratio <= 1) {
		return nil, fmt.Errorf("%w: %g must be greater than 0 and less or equal to 1", ErrMixRatio, ratio)
	}
	return &Mixer{Ratio: ratio}, nil
}

func DefaultMixer() *Mixer {
	return &Mixer{Ratio: DefaultMixRatio}
}

// LocationSample converts a position in seconds to a sample index.
// The result is only meaningful for locations already bounded by the buffer length.
func LocationSample(locationSeconds float64, sampleRate int) int {
	return int(math.Round(locationSeconds * float64(sampleRate)))
}

func validLocation(seconds float64) bool {
	return seconds >= 0 && !math.IsInf(seconds, 0)
}

// Embed places payload at locationSeconds inside host. No buffer is built before
// every precondition holds.
func (m *Mixer) Embed(host, payload models.SampleBuffer, locationSeconds float64) (models.SampleBuffer, models.EmbeddingDescriptor, error) {
	var desc models.EmbeddingDescriptor

	if host.SampleRate != payload.SampleRate {
		return models.SampleBuffer{}, desc, fmt.Errorf("%w: host %d Hz, payload %d Hz",
			ErrChannelMismatch, host.SampleRate, payload.SampleRate)
	}
	if host.Len() < payload.Len() {
		return models.SampleBuffer{}, desc, fmt.Errorf("%w: host has %d samples, payload %d",
			ErrCapacityExceeded, host.Len(), payload.Len())
	}
	if !validLocation(locationSeconds) {
		return models.SampleBuffer{}, desc, fmt.Errorf("%w: location %g s is outside the host",
			ErrCapacityExceeded, locationSeconds)
	}
	// bounded in float64 so a huge location cannot wrap when converted
	pos := math.Round(locationSeconds * float64(host.SampleRate))
	if pos > float64(host.Len()-payload.Len()) {
		return models.SampleBuffer{}, desc, fmt.Errorf("%w: location %g s + %d samples exceeds %d",
			ErrCapacityExceeded, locationSeconds, payload.Len(), host.Len())
	}
	start := LocationSample(locationSeconds, host.SampleRate)

	out := make([]float64, host.Len())
	copy(out[start:], payload.Samples)
	for i, h := range host.Samples {
		out[i] += m.Ratio * h
	}

	desc = models.EmbeddingDescriptor{
		LocationSeconds: locationSeconds,
		MessageWidth:    payload.Len(),
	}
	return models.SampleBuffer{Samples: out, SampleRate: host.SampleRate}, desc, nil
}

// Extract removes the attenuated host from mixed and returns the payload range named by desc.
func (m *Mixer) Extract(mixed, host models.SampleBuffer, desc models.EmbeddingDescriptor) (models.SampleBuffer, error) {
	if mixed.SampleRate != host.SampleRate {
		return models.SampleBuffer{}, fmt.Errorf("%w: mixed %d Hz, host %d Hz",
			ErrChannelMismatch, mixed.SampleRate, host.SampleRate)
	}
	if mixed.Len() != host.Len() {
		return models.SampleBuffer{}, fmt.Errorf("%w: mixed has %d samples, host %d",
			ErrLengthMismatch, mixed.Len(), host.Len())
	}
	if desc.MessageWidth < 0 || !validLocation(desc.LocationSeconds) {
		return models.SampleBuffer{}, fmt.Errorf("%w: invalid descriptor width %d location %g s",
			ErrCapacityExceeded, desc.MessageWidth, desc.LocationSeconds)
	}
	pos := math.Round(desc.LocationSeconds * float64(mixed.SampleRate))
	if pos > float64(mixed.Len()) {
		return models.SampleBuffer{}, fmt.Errorf("%w: location %g s past end %d",
			ErrCapacityExceeded, desc.LocationSeconds, mixed.Len())
	}
	start := LocationSample(desc.LocationSeconds, mixed.SampleRate)
	if desc.MessageWidth > mixed.Len()-start {
		return models.SampleBuffer{}, fmt.Errorf("%w: %d samples from %d past end %d",
			ErrCapacityExceeded, desc.MessageWidth, start, mixed.Len())
	}

	out := make([]float64, desc.MessageWidth)
	for i := range out {
		out[i] = mixed.Samples[start+i] - m.Ratio*host.Samples[start+i]
	}
	return models.SampleBuffer{Samples: out, SampleRate: mixed.SampleRate}, nil
}
