// Package fsk implements two-tone frequency-shift keying of bit sequences
package fsk

import (
	"errors"
	"fmt"
	"log"
	"math"
)

const (
	DefaultAmplitude  = 0.0001
	DefaultBitPeriod  = 1.0 / 44100
	DefaultRedundancy = 2

	MinBitPeriod  = 5e-7
	MaxBitPeriod  = 0.1
	MinRedundancy = 2
	MaxRedundancy = 100
)

var ErrConfigurationOutOfRange = errors.New("configuration out of range")

// Params holds every modulation constant derived from amplitude, bit period and redundancy.
// It is read-only once built and safe to share between a modulator and a demodulator.
type Params struct {
	amplitude  float64
	bitPeriod  float64
	bitRate    float64
	redundancy int
	freqOne    float64
	freqZero   float64
	step       float64

	timeAxis []float64
	refOne   []float64
	refZero  []float64
	cosOne   []float64
	cosZero  []float64
}

func checkParams(amplitude, bitPeriod float64, redundancy int) error {
	if redundancy < MinRedundancy || redundancy > MaxRedundancy {
		return fmt.Errorf("%w: redundancy %d (choose between %d and %d)",
			ErrConfigurationOutOfRange, redundancy, MinRedundancy, MaxRedundancy)
	}
	if !(amplitude > 0 && amplitude <= 1) {
		return fmt.Errorf("%w: amplitude %g must be greater than 0 and less or equal to 1",
			ErrConfigurationOutOfRange, amplitude)
	}
	if !(bitPeriod >= MinBitPeriod && bitPeriod <= MaxBitPeriod) {
		return fmt.Errorf("%w: bit period %g must be between %g and %g",
			ErrConfigurationOutOfRange, bitPeriod, MinBitPeriod, MaxBitPeriod)
	}
	return nil
}

// NewParams derives the modulation constants, failing with ErrConfigurationOutOfRange
// when any input is outside its documented bound.
func NewParams(amplitude, bitPeriod float64, redundancy int) (*Params, error) {
	if err := checkParams(amplitude, bitPeriod, redundancy); err != nil {
		return nil, err
	}
	return derive(amplitude, bitPeriod, redundancy), nil
}

// NewParamsOrDefault replaces every out-of-range input with its default and logs a warning.
func NewParamsOrDefault(amplitude, bitPeriod float64, redundancy int) *Params {
	if redundancy < MinRedundancy || redundancy > MaxRedundancy {
		log.Printf("Warning: cannot use %d as redundancy value (choose between %d and %d), using %d",
			redundancy, MinRedundancy, MaxRedundancy, DefaultRedundancy)
		redundancy = DefaultRedundancy
	}
	if !(amplitude > 0 && amplitude <= 1) {
		log.Printf("Warning: amplitude must be greater than 0 and less or equal to 1, using %g", DefaultAmplitude)
		amplitude = DefaultAmplitude
	}
	if !(bitPeriod >= MinBitPeriod && bitPeriod <= MaxBitPeriod) {
		log.Printf("Warning: bit period must be between %g and %g, using %g", MinBitPeriod, MaxBitPeriod, DefaultBitPeriod)
		bitPeriod = DefaultBitPeriod
	}
	return derive(amplitude, bitPeriod, redundancy)
}

func DefaultParams() *Params {
	return derive(DefaultAmplitude, DefaultBitPeriod, DefaultRedundancy)
}

func derive(amplitude, bitPeriod float64, redundancy int) *Params {
	bitRate := 1 / bitPeriod
	step := bitPeriod / float64(redundancy*2)

	p := &Params{
		amplitude:  amplitude,
		bitPeriod:  bitPeriod,
		bitRate:    bitRate,
		redundancy: redundancy,
		freqOne:    bitRate * float64(redundancy),
		freqZero:   bitRate * float64(redundancy) / 2,
		step:       step,
	}

	// one bit period sampled at step, first sample at t = step, last at t = bitPeriod
	size := int(math.Round(bitPeriod / step))
	p.timeAxis = make([]float64, size)
	p.refOne = make([]float64, size)
	p.refZero = make([]float64, size)
	p.cosOne = make([]float64, size)
	p.cosZero = make([]float64, size)
	for k := 0; k < size; k++ {
		t := step * float64(k+1)
		p.timeAxis[k] = t
		p.cosOne[k] = math.Cos(2 * math.Pi * p.freqOne * t)
		p.cosZero[k] = math.Cos(2 * math.Pi * p.freqZero * t)
		p.refOne[k] = amplitude * p.cosOne[k]
		p.refZero[k] = amplitude * p.cosZero[k]
	}
	return p
}

func (p *Params) Amplitude() float64 { return p.amplitude }
func (p *Params) BitPeriod() float64 { return p.bitPeriod }
func (p *Params) BitRate() float64   { return p.bitRate }
func (p *Params) Redundancy() int    { return p.redundancy }

// FreqOne is the tone carrying bit 1.
func (p *Params) FreqOne() float64 { return p.freqOne }

// FreqZero is the tone carrying bit 0.
func (p *Params) FreqZero() float64 { return p.freqZero }

// Step is the spacing between two samples inside a bit period.
func (p *Params) Step() float64 { return p.step }

// SamplesPerBit is the length of the time axis.
func (p *Params) SamplesPerBit() int { return len(p.timeAxis) }

// SampleRate is the rate carriers are written at, the bit rate rounded to an integer.
func (p *Params) SampleRate() int { return int(math.Round(p.bitRate)) }

func (p *Params) TimeAxis() []float64 { return clone(p.timeAxis) }
func (p *Params) RefOne() []float64   { return clone(p.refOne) }
func (p *Params) RefZero() []float64  { return clone(p.refZero) }

func (p *Params) String() string {
	return fmt.Sprintf("amplitude=%g bit_period=%g redundancy=%d freq_one=%gHz freq_zero=%gHz samples_per_bit=%d",
		p.amplitude, p.bitPeriod, p.redundancy, p.freqOne, p.freqZero, len(p.timeAxis))
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
