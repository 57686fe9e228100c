// Package config loads server and modulation settings
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"fsk-steganography-backend/audio"
	"fsk-steganography-backend/bitpack"
	"fsk-steganography-backend/fsk"
	"fsk-steganography-backend/stego"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		MaxUploadMB    int64    `yaml:"max_upload_mb"`
	} `yaml:"server"`

	Modulation struct {
		Amplitude       float64 `yaml:"amplitude"`
		BitPeriod       float64 `yaml:"bit_period"`
		Redundancy      int     `yaml:"redundancy"`
		PadSize         int     `yaml:"pad_size"`
		AmbiguousPolicy string  `yaml:"ambiguous_policy"`
		Workers         int     `yaml:"workers"`
	} `yaml:"modulation"`

	Embedding struct {
		MixRatio float64 `yaml:"mix_ratio"`
		BitDepth int     `yaml:"bit_depth"`
		MinPSNR  float64 `yaml:"min_psnr"`
	} `yaml:"embedding"`
}

func Default() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	c.Server.MaxUploadMB = 32

	c.Modulation.Amplitude = fsk.DefaultAmplitude
	c.Modulation.BitPeriod = fsk.DefaultBitPeriod
	c.Modulation.Redundancy = fsk.DefaultRedundancy
	c.Modulation.PadSize = bitpack.DefaultPadSize
	c.Modulation.AmbiguousPolicy = fsk.PolicyDrop.String()
	c.Modulation.Workers = 1

	c.Embedding.MixRatio = stego.DefaultMixRatio
	c.Embedding.BitDepth = audio.DefaultBitDepth
	c.Embedding.MinPSNR = 30
	return &c
}

// Load reads an optional .env file, then the YAML file at path (skipped when empty),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	c := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("FSK_AMBIGUOUS_POLICY"); v != "" {
		c.Modulation.AmbiguousPolicy = v
	}

	floats := map[string]*float64{
		"FSK_AMPLITUDE":   &c.Modulation.Amplitude,
		"FSK_BIT_PERIOD":  &c.Modulation.BitPeriod,
		"STEGO_MIX_RATIO": &c.Embedding.MixRatio,
		"MIN_PSNR":        &c.Embedding.MinPSNR,
	}
	for name, dst := range floats {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, v, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"FSK_REDUNDANCY": &c.Modulation.Redundancy,
		"FSK_PAD_SIZE":   &c.Modulation.PadSize,
		"FSK_WORKERS":    &c.Modulation.Workers,
		"WAV_BIT_DEPTH":  &c.Embedding.BitDepth,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, v, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		c.Server.MaxUploadMB = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.Server.MaxUploadMB)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := bitpack.NewCodec(c.Modulation.PadSize); err != nil {
		return err
	}
	if _, err := fsk.ParsePolicy(c.Modulation.AmbiguousPolicy); err != nil {
		return err
	}
	if c.Modulation.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Modulation.Workers)
	}
	if _, err := stego.NewMixer(c.Embedding.MixRatio); err != nil {
		return err
	}
	return audio.CheckAmplitude(c.Modulation.Amplitude, c.Embedding.BitDepth)
}

func (c *Config) Params() (*fsk.Params, error) {
	return fsk.NewParams(c.Modulation.Amplitude, c.Modulation.BitPeriod, c.Modulation.Redundancy)
}
