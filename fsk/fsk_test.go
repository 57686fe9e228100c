package fsk

import (
	"math"
	"testing"

	"fsk-steganography-backend/bitpack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, DefaultAmplitude, p.Amplitude())
	assert.Equal(t, DefaultRedundancy, p.Redundancy())
	assert.InDelta(t, 44100, p.BitRate(), 1e-6)
	assert.Equal(t, 44100, p.SampleRate())
	assert.Equal(t, 4, p.SamplesPerBit())
	assert.InDelta(t, p.BitPeriod()/4, p.Step(), 1e-18)

	axis := p.TimeAxis()
	assert.InDelta(t, p.Step(), axis[0], 1e-18)
	assert.InDelta(t, p.BitPeriod(), axis[len(axis)-1], 1e-15)
}

func TestParamsFrequencies(t *testing.T) {
	for _, bp := range []float64{MinBitPeriod, 1.0 / 44100, 1.0 / 8000, 0.01, MaxBitPeriod} {
		for _, r := range []int{2, 3, 7, 50, 100} {
			p, err := NewParams(0.5, bp, r)
			require.NoError(t, err)

			assert.InEpsilon(t, p.BitRate()*float64(r), p.FreqOne(), 1e-12)
			assert.InEpsilon(t, p.BitRate()*float64(r)/2, p.FreqZero(), 1e-12)
			assert.Greater(t, p.FreqOne(), p.FreqZero())
			assert.Equal(t, 2*r, p.SamplesPerBit())
			assert.Len(t, p.RefOne(), p.SamplesPerBit())
			assert.Len(t, p.RefZero(), p.SamplesPerBit())
		}
	}
}

func TestNewParamsOutOfRange(t *testing.T) {
	cases := []struct {
		name       string
		amplitude  float64
		bitPeriod  float64
		redundancy int
	}{
		{"zero amplitude", 0, DefaultBitPeriod, 2},
		{"amplitude above one", 1.5, DefaultBitPeriod, 2},
		{"nan amplitude", math.NaN(), DefaultBitPeriod, 2},
		{"short bit period", 0.1, 1e-7, 2},
		{"long bit period", 0.1, 0.2, 2},
		{"low redundancy", 0.1, DefaultBitPeriod, 1},
		{"high redundancy", 0.1, DefaultBitPeriod, 101},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewParams(tc.amplitude, tc.bitPeriod, tc.redundancy)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrConfigurationOutOfRange)
		})
	}
}

func TestNewParamsOrDefault(t *testing.T) {
	p := NewParamsOrDefault(2, 1, 500)
	assert.Equal(t, DefaultAmplitude, p.Amplitude())
	assert.Equal(t, DefaultBitPeriod, p.BitPeriod())
	assert.Equal(t, DefaultRedundancy, p.Redundancy())

	p = NewParamsOrDefault(0.3, 0.001, 4)
	assert.Equal(t, 0.3, p.Amplitude())
	assert.Equal(t, 0.001, p.BitPeriod())
	assert.Equal(t, 4, p.Redundancy())
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := DefaultParams()
	ref := p.RefOne()
	ref[0] = 42
	assert.NotEqual(t, 42.0, p.RefOne()[0])
}

func TestModulateLength(t *testing.T) {
	p := DefaultParams()
	bits, err := bitpack.ParseBits("1100101")
	require.NoError(t, err)

	samples := Modulate(bits, p)
	require.Len(t, samples, len(bits)*p.SamplesPerBit())

	ss := p.SamplesPerBit()
	assert.Equal(t, p.RefOne(), samples[0:ss])
	assert.Equal(t, p.RefZero(), samples[2*ss:3*ss])

	buf := ModulateBuffer(bits, p)
	assert.Equal(t, 44100, buf.SampleRate)
	assert.Equal(t, samples, buf.Samples)
}

func TestModulateDemodulateLetterA(t *testing.T) {
	p, err := NewParams(0.0001, 1.0/44100, 2)
	require.NoError(t, err)
	codec, err := bitpack.NewCodec(8)
	require.NoError(t, err)

	bits := codec.Encode([]byte{0x41})
	got, err := Demodulate(Modulate(bits, p), p)
	require.NoError(t, err)
	assert.Equal(t, "01000001", got.String())

	data, err := codec.Decode(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), data)
}

func TestModulateDemodulateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, r := range []int{2, 3, 5, 16} {
		for _, a := range []float64{0.0001, 0.3, 1} {
			p, err := NewParams(a, 1.0/22050, r)
			require.NoError(t, err)

			bits := make(bitpack.Bits, 200)
			for i := range bits {
				bits[i] = byte(rng.Intn(2))
			}

			res, err := NewDemodulator(p).Demodulate(Modulate(bits, p))
			require.NoError(t, err)
			assert.Equal(t, bits.String(), res.Bits.String(), "redundancy %d amplitude %g", r, a)
			assert.Empty(t, res.Ambiguous)
			assert.Equal(t, len(bits), res.Windows)
		}
	}
}

func TestDemodulateEmpty(t *testing.T) {
	p := DefaultParams()
	got, err := Demodulate(nil, p)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = Demodulate(Modulate(nil, p), p)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDemodulateDiscardsPartialWindow(t *testing.T) {
	p := DefaultParams()
	bits, err := bitpack.ParseBits("101")
	require.NoError(t, err)

	samples := Modulate(bits, p)
	samples = append(samples, p.RefOne()[:p.SamplesPerBit()-1]...)

	res, err := NewDemodulator(p).Demodulate(samples)
	require.NoError(t, err)
	assert.Equal(t, "101", res.Bits.String())
	assert.Equal(t, 3, res.Windows)
}

func TestAmbiguousPolicies(t *testing.T) {
	p := DefaultParams()
	bits, err := bitpack.ParseBits("10")
	require.NoError(t, err)

	// silence between the two bits
	samples := Modulate(bits[:1], p)
	samples = append(samples, make([]float64, p.SamplesPerBit())...)
	samples = append(samples, Modulate(bits[1:], p)...)

	res, err := NewDemodulator(p).Demodulate(samples)
	require.NoError(t, err)
	assert.Equal(t, "10", res.Bits.String())
	assert.Equal(t, []int{1}, res.Ambiguous)

	res, err = NewDemodulator(p, WithAmbiguousPolicy(PolicyZero)).Demodulate(samples)
	require.NoError(t, err)
	assert.Equal(t, "100", res.Bits.String())

	res, err = NewDemodulator(p, WithAmbiguousPolicy(PolicyOne)).Demodulate(samples)
	require.NoError(t, err)
	assert.Equal(t, "110", res.Bits.String())

	_, err = NewDemodulator(p, WithAmbiguousPolicy(PolicyFail)).Demodulate(samples)
	assert.ErrorIs(t, err, ErrAlignmentLoss)
}

func TestParallelMatchesSequential(t *testing.T) {
	p, err := NewParams(0.01, 1.0/44100, 3)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	bits := make(bitpack.Bits, 1001)
	for i := range bits {
		bits[i] = byte(rng.Intn(2))
	}
	samples := Modulate(bits, p)

	seq, err := NewDemodulator(p).Demodulate(samples)
	require.NoError(t, err)
	par, err := NewDemodulator(p, WithWorkers(4)).Demodulate(samples)
	require.NoError(t, err)

	assert.Equal(t, seq.Bits, par.Bits)
	assert.Equal(t, bits.String(), par.Bits.String())
}

func TestParsePolicy(t *testing.T) {
	for _, policy := range []AmbiguousPolicy{PolicyDrop, PolicyZero, PolicyOne, PolicyFail} {
		got, err := ParsePolicy(policy.String())
		require.NoError(t, err)
		assert.Equal(t, policy, got)
	}

	got, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDrop, got)

	_, err = ParsePolicy("guess")
	assert.Error(t, err)
}
