// Package handlers is made to handle requests
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"fsk-steganography-backend/analysis"
	"fsk-steganography-backend/audio"
	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/config"
	"fsk-steganography-backend/crypto"
	"fsk-steganography-backend/fsk"
	"fsk-steganography-backend/models"
	"fsk-steganography-backend/pipeline"
	"fsk-steganography-backend/stego"

	"github.com/gin-gonic/gin"
)

type FSKHandler struct {
	cfg *config.Config
}

func NewFSKHandler(cfg *config.Config) *FSKHandler {
	return &FSKHandler{cfg: cfg}
}

func (h *FSKHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "FSK steganography API is running",
		"version": "1.0.0",
	})
}

// Params reports the constants derived from the query parameters.
func (h *FSKHandler) Params(c *gin.Context) {
	var req models.ModulationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid parameters: %v", err)
		return
	}
	p, err := h.params(&req)
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ParamsResponse{
		Success:       true,
		Amplitude:     p.Amplitude(),
		BitPeriod:     p.BitPeriod(),
		BitRate:       p.BitRate(),
		Redundancy:    p.Redundancy(),
		FreqOne:       p.FreqOne(),
		FreqZero:      p.FreqZero(),
		Step:          p.Step(),
		SamplesPerBit: p.SamplesPerBit(),
		SampleRate:    p.SampleRate(),
	})
}

// Encode modulates an uploaded secret file into a WAV carrier.
func (h *FSKHandler) Encode(c *gin.Context) {
	req, ok := h.bindModulation(c)
	if !ok {
		return
	}

	secretData, secretHeader, err := readFormFile(c, "secret_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Secret file is required")
		return
	}

	p, err := h.params(req)
	if err != nil {
		failErr(c, err)
		return
	}
	codec, err := h.codec(req)
	if err != nil {
		failErr(c, err)
		return
	}
	cipher, err := crypto.ForKey(req.Key)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid key: %v", err)
		return
	}

	if err := audio.CheckAmplitude(p.Amplitude(), h.cfg.Embedding.BitDepth); err != nil {
		failErr(c, err)
		return
	}

	carrier := pipeline.EncodeBytes(secretData, p, codec, cipher)
	wavData, err := audio.EncodeWAV(carrier, h.cfg.Embedding.BitDepth, nil)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to encode carrier: %v", err)
		return
	}

	c.Header("X-Stego-Method", "FSK")
	c.Header("X-Stego-Bits", fmt.Sprintf("%d", len(secretData)*codec.PadSize))
	c.Header("X-Stego-Samples-Per-Bit", fmt.Sprintf("%d", p.SamplesPerBit()))
	c.Header("X-Stego-Sample-Rate", fmt.Sprintf("%d", carrier.SampleRate))
	sendFile(c, outputName(secretHeader.Filename, "_fsk.wav"), "audio/wav", wavData)
}

// Decode demodulates an uploaded carrier back into the secret file.
func (h *FSKHandler) Decode(c *gin.Context) {
	req, ok := h.bindModulation(c)
	if !ok {
		return
	}

	carrierData, carrierHeader, err := readFormFile(c, "carrier_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Carrier file is required")
		return
	}
	carrier, _, err := audio.DecodeAny(carrierData, carrierHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}

	p, err := h.params(req)
	if err != nil {
		failErr(c, err)
		return
	}
	codec, err := h.codec(req)
	if err != nil {
		failErr(c, err)
		return
	}
	cipher, err := crypto.ForKey(req.Key)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid key: %v", err)
		return
	}
	policyName := req.AmbiguousPolicy
	if policyName == "" {
		policyName = h.cfg.Modulation.AmbiguousPolicy
	}
	policy, err := fsk.ParsePolicy(policyName)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	demod := fsk.NewDemodulator(p, fsk.WithAmbiguousPolicy(policy), fsk.WithWorkers(h.cfg.Modulation.Workers))
	secretData, res, err := pipeline.DecodeSamples(carrier.Samples, demod, codec, cipher)
	if err != nil {
		failErr(c, err)
		return
	}
	if len(secretData) == 0 {
		fail(c, http.StatusUnprocessableEntity,
			"No data recovered. Check that amplitude, bit period and redundancy match the ones used to encode.")
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = outputName(carrierHeader.Filename, "_decoded.bin")
	}

	c.Header("X-Stego-Windows", fmt.Sprintf("%d", res.Windows))
	c.Header("X-Stego-Ambiguous-Windows", fmt.Sprintf("%d", len(res.Ambiguous)))
	sendFile(c, filepath.Base(filename), "application/octet-stream", secretData)
}

// Analyze reports which tones dominate an uploaded carrier.
func (h *FSKHandler) Analyze(c *gin.Context) {
	req, ok := h.bindModulation(c)
	if !ok {
		return
	}

	carrierData, carrierHeader, err := readFormFile(c, "carrier_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Carrier file is required")
		return
	}
	carrier, _, err := audio.DecodeAny(carrierData, carrierHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}
	p, err := h.params(req)
	if err != nil {
		failErr(c, err)
		return
	}

	report, err := analysis.ToneReport(carrier.Samples, p)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Success:        true,
		Samples:        report.Samples,
		Windows:        report.Windows,
		EffectiveRate:  report.EffectiveRate,
		PeakFrequency:  report.PeakFrequency,
		OneMagnitude:   report.OneMagnitude,
		ZeroMagnitude:  report.ZeroMagnitude,
		DominantSymbol: report.Dominant(),
	})
}

// Embed hides an uploaded carrier inside an uploaded host (WAV or MP3).
func (h *FSKHandler) Embed(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}
	var req models.EmbedRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid parameters: %v", err)
		return
	}

	hostData, hostHeader, err := readFormFile(c, "host_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Host audio file is required")
		return
	}
	carrierData, carrierHeader, err := readFormFile(c, "carrier_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Carrier file is required")
		return
	}

	host, info, err := audio.DecodeAny(hostData, hostHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}
	carrier, _, err := audio.DecodeAny(carrierData, carrierHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}
	mixer, err := h.mixer(req.MixRatio)
	if err != nil {
		failErr(c, err)
		return
	}

	mixed, desc, err := mixer.Embed(host, carrier, req.LocationSeconds)
	if err != nil {
		failErr(c, err)
		return
	}

	if info == nil {
		info = &models.TrackInfo{}
	}
	info.Comment = audio.FormatDescriptor(desc)
	wavData, err := audio.EncodeWAV(mixed, h.cfg.Embedding.BitDepth, info)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to encode stego audio: %v", err)
		return
	}

	// quality of the mix against the attenuated host alone
	attenuated := make([]float64, host.Len())
	for i, s := range host.Samples {
		attenuated[i] = mixer.Ratio * s
	}
	psnr := audio.CalculatePSNR(attenuated, mixed.Samples)
	quality := "ok"
	if !audio.ValidatePSNR(psnr, h.cfg.Embedding.MinPSNR) {
		quality = "low"
	}

	c.Header("X-Stego-Method", "FSK additive mix")
	c.Header("X-Stego-PSNR", fmt.Sprintf("%.2f", psnr))
	c.Header("X-Stego-Quality", quality)
	c.Header("X-Message-Width", fmt.Sprintf("%d", desc.MessageWidth))
	c.Header("X-Message-Location", fmt.Sprintf("%g", desc.LocationSeconds))
	sendFile(c, outputName(hostHeader.Filename, "_stego.wav"), "audio/wav", wavData)
}

// Extract takes the carrier back out of a stego file given the original host.
// Width and location default to the descriptor stored in the stego file.
func (h *FSKHandler) Extract(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}
	var req models.ExtractRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid parameters: %v", err)
		return
	}

	stegoData, stegoHeader, err := readFormFile(c, "stego_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Stego audio file is required")
		return
	}
	hostData, hostHeader, err := readFormFile(c, "host_file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Host audio file is required")
		return
	}

	desc, found := audio.ReadDescriptor(stegoData)
	if req.MessageWidth != nil {
		desc.MessageWidth = *req.MessageWidth
	}
	if req.LocationSeconds != nil {
		desc.LocationSeconds = *req.LocationSeconds
	}
	if !found && req.MessageWidth == nil {
		fail(c, http.StatusBadRequest, "message_width is required: the stego file carries no embedding descriptor")
		return
	}

	mixed, _, err := audio.DecodeAny(stegoData, stegoHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}
	host, _, err := audio.DecodeAny(hostData, hostHeader.Filename)
	if err != nil {
		failErr(c, err)
		return
	}
	mixer, err := h.mixer(req.MixRatio)
	if err != nil {
		failErr(c, err)
		return
	}

	restored, err := mixer.Extract(mixed, host, desc)
	if err != nil {
		failErr(c, err)
		return
	}
	wavData, err := audio.EncodeWAV(restored, h.cfg.Embedding.BitDepth, nil)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to encode carrier: %v", err)
		return
	}

	c.Header("X-Message-Width", fmt.Sprintf("%d", desc.MessageWidth))
	c.Header("X-Message-Location", fmt.Sprintf("%g", desc.LocationSeconds))
	sendFile(c, outputName(stegoHeader.Filename, "_carrier.wav"), "audio/wav", wavData)
}

func (h *FSKHandler) parseForm(c *gin.Context) bool {
	if err := c.Request.ParseMultipartForm(h.cfg.Server.MaxUploadMB << 20); err != nil {
		fail(c, http.StatusBadRequest, "Failed to parse form: %v", err)
		return false
	}
	return true
}

func (h *FSKHandler) bindModulation(c *gin.Context) (*models.ModulationRequest, bool) {
	if !h.parseForm(c) {
		return nil, false
	}
	var req models.ModulationRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid parameters: %v", err)
		return nil, false
	}
	return &req, true
}

func (h *FSKHandler) params(req *models.ModulationRequest) (*fsk.Params, error) {
	amplitude := h.cfg.Modulation.Amplitude
	if req.Amplitude != nil {
		amplitude = *req.Amplitude
	}
	bitPeriod := h.cfg.Modulation.BitPeriod
	if req.BitPeriod != nil {
		bitPeriod = *req.BitPeriod
	}
	redundancy := h.cfg.Modulation.Redundancy
	if req.Redundancy != nil {
		redundancy = *req.Redundancy
	}
	return fsk.NewParams(amplitude, bitPeriod, redundancy)
}

func (h *FSKHandler) codec(req *models.ModulationRequest) (*bitpack.Codec, error) {
	padSize := h.cfg.Modulation.PadSize
	if req.PadSize != nil {
		padSize = *req.PadSize
	}
	return bitpack.NewCodec(padSize)
}

func (h *FSKHandler) mixer(ratio *float64) (*stego.Mixer, error) {
	if ratio == nil {
		return stego.NewMixer(h.cfg.Embedding.MixRatio)
	}
	return stego.NewMixer(*ratio)
}

func readFormFile(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return data, header, nil
}

func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", len(data)))
	c.Data(http.StatusOK, contentType, data)
}

func outputName(uploaded, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(uploaded), filepath.Ext(uploaded))
	if base == "" || base == "." {
		base = "output"
	}
	return base + suffix
}

func fail(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	})
}

func failErr(c *gin.Context, err error) {
	fail(c, statusFor(err), "%v", err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fsk.ErrConfigurationOutOfRange),
		errors.Is(err, bitpack.ErrPadSize),
		errors.Is(err, bitpack.ErrPartialGroup),
		errors.Is(err, stego.ErrChannelMismatch),
		errors.Is(err, stego.ErrCapacityExceeded),
		errors.Is(err, stego.ErrLengthMismatch),
		errors.Is(err, stego.ErrMixRatio),
		errors.Is(err, audio.ErrMissingInput),
		errors.Is(err, audio.ErrUnsupportedFormat),
		errors.Is(err, audio.ErrBelowResolution):
		return http.StatusBadRequest
	case errors.Is(err, fsk.ErrAlignmentLoss):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
