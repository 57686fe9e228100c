// Package models contain needed models
package models

// SampleBuffer is a mono sequence of normalized samples and its sample rate in Hz
type SampleBuffer struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples
func (b SampleBuffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds
func (b SampleBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// EmbeddingDescriptor is what extraction needs to find a carrier inside a mixed signal
type EmbeddingDescriptor struct {
	LocationSeconds float64 `json:"message_location" yaml:"message_location"`
	MessageWidth    int     `json:"message_width" yaml:"message_width"`
}

// TrackInfo represents tag metadata carried from a host file to the mixed output
type TrackInfo struct {
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Album   string `json:"album,omitempty"`
	Genre   string `json:"genre,omitempty"`
	Year    string `json:"year,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ModulationRequest represents the modulation fields shared by encode, decode and analyze
// Unset fields fall back to the server configuration
type ModulationRequest struct {
	Amplitude       *float64 `form:"amplitude"`
	BitPeriod       *float64 `form:"bit_period"`
	Redundancy      *int     `form:"redundancy"`
	PadSize         *int     `form:"pad_size"`
	AmbiguousPolicy string   `form:"ambiguous_policy"`
	Key             string   `form:"key"`
	Filename        string   `form:"filename"`
}

// EmbedRequest represents the form fields of an embed request
type EmbedRequest struct {
	LocationSeconds float64  `form:"location"`
	MixRatio        *float64 `form:"mix_ratio"`
}

// ExtractRequest represents the form fields of an extract request
type ExtractRequest struct {
	LocationSeconds *float64 `form:"location"`
	MessageWidth    *int     `form:"message_width"`
	MixRatio        *float64 `form:"mix_ratio"`
}

// APIResponse represents a JSON reply, used for every failure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ParamsResponse describes derived modulation parameters
type ParamsResponse struct {
	Success       bool    `json:"success"`
	Amplitude     float64 `json:"amplitude"`
	BitPeriod     float64 `json:"bit_period"`
	BitRate       float64 `json:"bit_rate"`
	Redundancy    int     `json:"redundancy"`
	FreqOne       float64 `json:"freq_one"`
	FreqZero      float64 `json:"freq_zero"`
	Step          float64 `json:"step"`
	SamplesPerBit int     `json:"samples_per_bit"`
	SampleRate    int     `json:"sample_rate"`
}

// AnalyzeResponse represents the tone report of a carrier
type AnalyzeResponse struct {
	Success        bool    `json:"success"`
	Samples        int     `json:"samples"`
	Windows        int     `json:"windows"`
	EffectiveRate  float64 `json:"effective_rate"`
	PeakFrequency  float64 `json:"peak_frequency"`
	OneMagnitude   float64 `json:"one_magnitude"`
	ZeroMagnitude  float64 `json:"zero_magnitude"`
	DominantSymbol string  `json:"dominant_symbol"`
}
