package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/models"
	"fsk-steganography-backend/stego"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(n, rate int, freq, amplitude float64) models.SampleBuffer {
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return models.SampleBuffer{Samples: s, SampleRate: rate}
}

func TestWAVRoundTrip(t *testing.T) {
	buf := tone(2000, 44100, 440, 0.7)

	for _, depth := range []int{16, 24, 32} {
		data, err := EncodeWAV(buf, depth, nil)
		require.NoError(t, err, "depth %d", depth)

		got, err := DecodeWAV(data)
		require.NoError(t, err, "depth %d", depth)
		assert.Equal(t, 44100, got.SampleRate)
		require.Equal(t, buf.Len(), got.Len())
		assert.InDeltaSlice(t, buf.Samples, got.Samples, 1/fullScale(depth)+1e-12, "depth %d", depth)
	}
}

func TestEncodeWAVClips(t *testing.T) {
	buf := models.SampleBuffer{Samples: []float64{2, -2, 1, -1}, SampleRate: 8000}
	data, err := EncodeWAV(buf, 16, nil)
	require.NoError(t, err)

	got, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{32767.0 / 32768, -1, 32767.0 / 32768, -1}, got.Samples, 1e-12)
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	_, err := EncodeWAV(tone(10, 8000, 100, 0.5), 12, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = EncodeWAV(models.SampleBuffer{Samples: []float64{0}}, 16, nil)
	assert.Error(t, err)
}

func TestEncodeWAVRejectsSignalLostToQuantization(t *testing.T) {
	quiet := models.SampleBuffer{Samples: make([]float64, 100), SampleRate: 44100}
	for i := range quiet.Samples {
		quiet.Samples[i] = 0.0001 * math.Cos(math.Pi*float64(i))
	}

	_, err := EncodeWAV(quiet, 8, nil)
	assert.ErrorIs(t, err, ErrBelowResolution)

	data, err := EncodeWAV(quiet, 16, nil)
	require.NoError(t, err)
	got, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.NotEqual(t, make([]float64, 100), got.Samples)
}

func TestCheckAmplitude(t *testing.T) {
	assert.ErrorIs(t, CheckAmplitude(0.0001, 8), ErrBelowResolution)
	assert.NoError(t, CheckAmplitude(0.0001, 16))
	assert.NoError(t, CheckAmplitude(0.5/128, 8))
	assert.ErrorIs(t, CheckAmplitude(0.4/128, 8), ErrBelowResolution)
	assert.ErrorIs(t, CheckAmplitude(0.0001, 12), ErrUnsupportedFormat)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV([]byte("definitely not a wav file"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDescriptorComment(t *testing.T) {
	d := models.EmbeddingDescriptor{LocationSeconds: 1.25, MessageWidth: 4096}
	got, ok := ParseDescriptor(FormatDescriptor(d))
	require.True(t, ok)
	assert.Equal(t, d, got)

	_, ok = ParseDescriptor("recorded live")
	assert.False(t, ok)
	_, ok = ParseDescriptor("fsk:width=12")
	assert.False(t, ok)
	_, ok = ParseDescriptor("fsk:width=x;location=0")
	assert.False(t, ok)
}

func TestDescriptorInWAVMetadata(t *testing.T) {
	d := models.EmbeddingDescriptor{LocationSeconds: 0.5, MessageWidth: 100}
	data, err := EncodeWAV(tone(1000, 8000, 300, 0.4), 16, &models.TrackInfo{Title: "clip", Comment: FormatDescriptor(d)})
	require.NoError(t, err)

	got, ok := ReadDescriptor(data)
	require.True(t, ok)
	assert.Equal(t, d, got)

	buf, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 1000, buf.Len())
}

func TestDecodeAnyUnsupported(t *testing.T) {
	_, _, err := DecodeAny([]byte("plain text"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPSNR(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	assert.True(t, math.IsInf(CalculatePSNR(a, a), 1))
	assert.Equal(t, 0.0, CalculatePSNR(a, a[:2]))
	assert.Equal(t, 0.0, CalculatePSNR(nil, nil))

	b := []float64{0.2, 0.3, 0.4}
	assert.InDelta(t, 20.0, CalculatePSNR(a, b), 1e-9)

	assert.True(t, ValidatePSNR(math.Inf(1), 40))
	assert.True(t, ValidatePSNR(45, 40))
	assert.False(t, ValidatePSNR(20, 40))
}

func newTestHelper(t *testing.T, bitDepth int) *BinWav {
	t.Helper()
	bw, err := NewBinWav(nil, nil, bitDepth)
	require.NoError(t, err)
	return bw
}

func TestBinWavFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bw := newTestHelper(t, 16)

	src := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(src, []byte("secret"), 0o600))

	bits, err := bw.ReadFile(src)
	require.NoError(t, err)
	assert.Len(t, bits, 48)

	dst := filepath.Join(dir, "restored.bin")
	require.NoError(t, bw.WriteFile(dst, bits))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), got)
}

func TestBinWavSumSub(t *testing.T) {
	dir := t.TempDir()
	bw := newTestHelper(t, 32)

	base := filepath.Join(dir, "clip.wav")
	encoded := filepath.Join(dir, "encoded.wav")
	output := filepath.Join(dir, "output.wav")
	restored := filepath.Join(dir, "restored.wav")

	host := tone(4410, 44100, 220, 0.5)
	payload := tone(441, 44100, 5000, 0.01)
	require.NoError(t, bw.WriteAudio(base, host))
	require.NoError(t, bw.WriteAudio(encoded, payload))

	desc, err := bw.Sum(base, encoded, output, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 441, desc.MessageWidth)

	mixed, err := bw.ReadAudio(output)
	require.NoError(t, err)
	assert.Equal(t, host.Len(), mixed.Len())

	require.NoError(t, bw.Sub(output, base, restored, desc))
	got, err := bw.ReadAudio(restored)
	require.NoError(t, err)
	require.Equal(t, payload.Len(), got.Len())
	assert.InDeltaSlice(t, payload.Samples, got.Samples, 1e-8)
}

func TestBinWavSumErrors(t *testing.T) {
	dir := t.TempDir()
	bw := newTestHelper(t, 16)

	_, err := bw.Sum("", "encoded.wav", "out.wav", 0)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorIs(t, bw.Sub("out.wav", "", "restored.wav", models.EmbeddingDescriptor{}), ErrMissingInput)

	base := filepath.Join(dir, "base.wav")
	encoded := filepath.Join(dir, "encoded.wav")
	require.NoError(t, bw.WriteAudio(base, tone(100, 8000, 200, 0.5)))
	require.NoError(t, bw.WriteAudio(encoded, tone(200, 8000, 200, 0.5)))

	_, err = bw.Sum(base, encoded, filepath.Join(dir, "out.wav"), 0)
	assert.ErrorIs(t, err, stego.ErrCapacityExceeded)

	require.NoError(t, bw.WriteAudio(encoded, tone(50, 16000, 200, 0.5)))
	_, err = bw.Sum(base, encoded, filepath.Join(dir, "out.wav"), 0)
	assert.ErrorIs(t, err, stego.ErrChannelMismatch)
}

func TestNewBinWavBitDepth(t *testing.T) {
	codec, err := bitpack.NewCodec(8)
	require.NoError(t, err)

	_, err = NewBinWav(codec, stego.DefaultMixer(), 20)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
