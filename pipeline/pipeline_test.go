package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"fsk-steganography-backend/audio"
	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/crypto"
	"fsk-steganography-backend/fsk"
	"fsk-steganography-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePayload(t *testing.T, dir string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEncodeDecodeFiles(t *testing.T) {
	for _, key := range []string{"", "LEMON"} {
		dir := t.TempDir()
		helper, err := audio.NewBinWav(nil, nil, 16)
		require.NoError(t, err)

		payload := []byte("\x00\x01 hidden bytes \xfe\xff")
		src := writePayload(t, dir, payload)
		encoded := filepath.Join(dir, "encoded_message.wav")
		restored := filepath.Join(dir, "data_restored.bin")

		p := fsk.DefaultParams()
		require.NoError(t, Encode(helper, src, encoded, p, key))

		carrier, err := helper.ReadAudio(encoded)
		require.NoError(t, err)
		assert.Equal(t, 44100, carrier.SampleRate)
		assert.Equal(t, len(payload)*8*p.SamplesPerBit(), carrier.Len())

		res, err := Decode(helper, encoded, restored, fsk.NewDemodulator(p), key)
		require.NoError(t, err)
		assert.Empty(t, res.Ambiguous)

		got, err := os.ReadFile(restored)
		require.NoError(t, err)
		assert.Equal(t, payload, got, "key %q", key)
	}
}

func TestFullChainThroughHost(t *testing.T) {
	dir := t.TempDir()
	helper, err := audio.NewBinWav(nil, nil, 32)
	require.NoError(t, err)

	p := fsk.DefaultParams()
	payload := []byte("jpeg bytes would go here")
	src := writePayload(t, dir, payload)

	encoded := filepath.Join(dir, "encoded_message.wav")
	clip := filepath.Join(dir, "clip.wav")
	output := filepath.Join(dir, "output_fsk.wav")
	restoredCarrier := filepath.Join(dir, "restored_encoded_message.wav")
	restored := filepath.Join(dir, "data_restored.bin")

	require.NoError(t, Encode(helper, src, encoded, p, ""))

	host := make([]float64, 44100)
	for i := range host {
		host[i] = 0.6 * math.Sin(2*math.Pi*330*float64(i)/44100)
	}
	require.NoError(t, helper.WriteAudio(clip, models.SampleBuffer{Samples: host, SampleRate: 44100}))

	desc, err := helper.Sum(clip, encoded, output, 0.1)
	require.NoError(t, err)
	require.NoError(t, helper.Sub(output, clip, restoredCarrier, desc))

	_, err = Decode(helper, restoredCarrier, restored, fsk.NewDemodulator(p), "")
	require.NoError(t, err)

	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEncodeMissingFile(t *testing.T) {
	helper, err := audio.NewBinWav(nil, nil, 16)
	require.NoError(t, err)

	err = Encode(helper, "", filepath.Join(t.TempDir(), "out.wav"), fsk.DefaultParams(), "")
	assert.ErrorIs(t, err, audio.ErrMissingInput)
}

func TestInMemoryRoundTrip(t *testing.T) {
	p, err := fsk.NewParams(0.2, 1.0/8000, 4)
	require.NoError(t, err)
	codec, err := bitpack.NewCodec(8)
	require.NoError(t, err)
	cipher, err := crypto.ForKey("k3y")
	require.NoError(t, err)

	carrier := EncodeBytes([]byte("in memory"), p, codec, cipher)
	assert.Equal(t, 8000, carrier.SampleRate)

	data, res, err := DecodeSamples(carrier.Samples, fsk.NewDemodulator(p, fsk.WithWorkers(3)), codec, cipher)
	require.NoError(t, err)
	assert.Equal(t, []byte("in memory"), data)
	assert.Equal(t, 9*8, res.Windows)
}
