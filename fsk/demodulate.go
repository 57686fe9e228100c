package fsk

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"fsk-steganography-backend/bitpack"

	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/integrate"
)

var ErrAlignmentLoss = errors.New("window matches neither tone")

// AmbiguousPolicy decides what a window matching neither tone turns into.
type AmbiguousPolicy int

const (
	PolicyDrop AmbiguousPolicy = iota
	PolicyZero
	PolicyOne
	PolicyFail
)

var policyNames = map[AmbiguousPolicy]string{
	PolicyDrop: "drop",
	PolicyZero: "zero",
	PolicyOne:  "one",
	PolicyFail: "fail",
}

func (ap AmbiguousPolicy) String() string {
	if name, ok := policyNames[ap]; ok {
		return name
	}
	return fmt.Sprintf("AmbiguousPolicy(%d)", int(ap))
}

func ParsePolicy(s string) (AmbiguousPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PolicyDrop, nil
	}
	for policy, name := range policyNames {
		if name == s {
			return policy, nil
		}
	}
	return PolicyDrop, fmt.Errorf("unknown ambiguous window policy %q (use drop, zero, one or fail)", s)
}

type decision int8

const (
	decisionNone decision = iota - 1
	decisionZero
	decisionOne
)

type Demodulator struct {
	params  *Params
	policy  AmbiguousPolicy
	workers int
}

type DemodOption func(*Demodulator)

func WithAmbiguousPolicy(policy AmbiguousPolicy) DemodOption {
	return func(d *Demodulator) { d.policy = policy }
}

// WithWorkers spreads the windows over n goroutines. Values below 2 keep it sequential.
func WithWorkers(n int) DemodOption {
	return func(d *Demodulator) { d.workers = n }
}

func NewDemodulator(p *Params, opts ...DemodOption) *Demodulator {
	d := &Demodulator{params: p, policy: PolicyDrop, workers: 1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result is the outcome of a demodulation pass.
type Result struct {
	Bits bitpack.Bits
	// Windows is the number of complete windows inspected.
	Windows int
	// Ambiguous lists the indices of windows that matched neither tone.
	Ambiguous []int
}

// Demodulate correlates every complete window of samples against both reference tones.
// A trailing partial window is ignored.
func (d *Demodulator) Demodulate(samples []float64) (*Result, error) {
	ss := len(d.params.timeAxis)
	windows := len(samples) / ss
	decisions := make([]decision, windows)

	workers := d.workers
	if workers > windows {
		workers = windows
	}
	if workers < 2 {
		d.decideRange(samples, decisions, 0, windows)
	} else {
		var g errgroup.Group
		chunk := (windows + workers - 1) / workers
		for start := 0; start < windows; start += chunk {
			start, end := start, min(start+chunk, windows)
			g.Go(func() error {
				d.decideRange(samples, decisions, start, end)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Bits:    make(bitpack.Bits, 0, windows),
		Windows: windows,
	}
	for i, dec := range decisions {
		switch dec {
		case decisionOne:
			res.Bits = append(res.Bits, 1)
		case decisionZero:
			res.Bits = append(res.Bits, 0)
		default:
			res.Ambiguous = append(res.Ambiguous, i)
			switch d.policy {
			case PolicyZero:
				res.Bits = append(res.Bits, 0)
			case PolicyOne:
				res.Bits = append(res.Bits, 1)
			case PolicyFail:
				return nil, fmt.Errorf("%w: window %d (samples %d-%d)", ErrAlignmentLoss, i, i*ss, (i+1)*ss-1)
			}
		}
	}

	if len(res.Ambiguous) > 0 {
		log.Printf("Warning: %d of %d windows matched neither tone (policy %s)", len(res.Ambiguous), windows, d.policy)
	}
	return res, nil
}

func (d *Demodulator) decideRange(samples []float64, decisions []decision, start, end int) {
	ss := len(d.params.timeAxis)
	prod := make([]float64, ss)
	for i := start; i < end; i++ {
		decisions[i] = d.decide(samples[i*ss:(i+1)*ss], prod)
	}
}

func (d *Demodulator) decide(window, prod []float64) decision {
	p := d.params

	vecmath.MulBlock(prod, window, p.cosOne)
	z0 := integrate.Trapezoidal(p.timeAxis, prod)
	vecmath.MulBlock(prod, window, p.cosZero)
	z1 := integrate.Trapezoidal(p.timeAxis, prod)

	z0 = math.Abs(math.Ceil(2 * z0 / p.bitPeriod))
	z1 = math.Abs(math.Ceil(2 * z1 / p.bitPeriod))

	threshold := p.amplitude / 2
	switch {
	case z0 > threshold:
		return decisionOne
	case z1 > threshold:
		return decisionZero
	default:
		return decisionNone
	}
}

// Demodulate runs a sequential demodulator that drops ambiguous windows.
func Demodulate(samples []float64, p *Params) (bitpack.Bits, error) {
	res, err := NewDemodulator(p).Demodulate(samples)
	if err != nil {
		return nil, err
	}
	return res.Bits, nil
}
