// Package analysis inspects the spectrum of a modulated carrier
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"fsk-steganography-backend/fsk"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var ErrTooShort = errors.New("carrier too short to analyze")

const (
	SymbolOne  = "one"
	SymbolZero = "zero"
)

// Report describes how strongly each tone is present in a carrier.
type Report struct {
	Samples int
	Windows int
	// EffectiveRate is 1/step, the rate the tones were synthesized at.
	EffectiveRate float64
	PeakFrequency float64
	OneMagnitude  float64
	ZeroMagnitude float64
}

// Dominant names the tone with the larger magnitude.
func (r *Report) Dominant() string {
	if r.OneMagnitude >= r.ZeroMagnitude {
		return SymbolOne
	}
	return SymbolZero
}

// ToneReport runs a Hamming windowed FFT over the whole carrier.
func ToneReport(samples []float64, p *fsk.Params) (*Report, error) {
	n := len(samples)
	if n < 2 {
		return nil, ErrTooShort
	}

	w := make([]float64, n)
	copy(w, samples)
	window.Apply(w, window.Hamming)
	spectrum := fft.FFTReal(w)

	rate := 1 / p.Step()
	half := n / 2
	mag := func(bin int) float64 {
		if bin < 0 || bin > half {
			return 0
		}
		return cmplx.Abs(spectrum[bin]) / float64(n)
	}
	binOf := func(freq float64) int {
		return int(math.Round(freq * float64(n) / rate))
	}

	peak := 1
	for bin := 1; bin <= half; bin++ {
		if mag(bin) > mag(peak) {
			peak = bin
		}
	}

	return &Report{
		Samples:       n,
		Windows:       n / p.SamplesPerBit(),
		EffectiveRate: rate,
		PeakFrequency: float64(peak) * rate / float64(n),
		OneMagnitude:  mag(binOf(p.FreqOne())),
		ZeroMagnitude: mag(binOf(p.FreqZero())),
	}, nil
}
