// Package config loads process settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the studio binary reads at start-up.
type Config struct {
	Audio   AudioConfig
	Capture CaptureConfig
	Gemini  GeminiConfig
	Log     LogConfig

	MetricsAddr string `env:"STUDIO_METRICS_ADDR"`
}

// AudioConfig sizes the processing context and the output device.
type AudioConfig struct {
	SampleRate   float64       `env:"STUDIO_SAMPLE_RATE" envDefault:"48000"`
	BlockSize    int           `env:"STUDIO_BLOCK_SIZE" envDefault:"128"`
	TimeConstant float64       `env:"STUDIO_TIME_CONSTANT" envDefault:"0.1"`
	MasterGain   float64       `env:"STUDIO_MASTER_GAIN" envDefault:"0.8"`
	OutputBuffer time.Duration `env:"STUDIO_OUTPUT_BUFFER" envDefault:"50ms"`
	FFTSize      int           `env:"STUDIO_FFT_SIZE" envDefault:"2048"`
}

// CaptureConfig selects the microphone ffmpeg reads from.
type CaptureConfig struct {
	FFmpegPath string `env:"STUDIO_FFMPEG" envDefault:"ffmpeg"`
	Format     string `env:"STUDIO_INPUT_FORMAT"`
	Device     string `env:"STUDIO_INPUT_DEVICE"`
	SampleRate int    `env:"STUDIO_INPUT_RATE" envDefault:"48000"`
	Channels   int    `env:"STUDIO_INPUT_CHANNELS" envDefault:"1"`
}

// GeminiConfig configures the remote voice service.
type GeminiConfig struct {
	APIKey            string        `env:"GEMINI_API_KEY"`
	BaseURL           string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	SpeechModel       string        `env:"GEMINI_SPEECH_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	AnalysisModel     string        `env:"GEMINI_ANALYSIS_MODEL" envDefault:"gemini-3-flash-preview"`
	RequestsPerMinute int           `env:"GEMINI_REQUESTS_PER_MINUTE" envDefault:"30"`
	MaxRetries        uint64        `env:"GEMINI_MAX_RETRIES" envDefault:"3"`
	RetryBackoff      time.Duration `env:"GEMINI_RETRY_BACKOFF" envDefault:"500ms"`
	Timeout           time.Duration `env:"GEMINI_TIMEOUT" envDefault:"60s"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Console bool   `env:"LOG_CONSOLE" envDefault:"true"`
}

// Load reads the given .env files, or ".env" when none are named, and then
// parses the environment. Missing files are skipped; variables already set
// in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Capture.Format == "" {
		cfg.Capture.Format, cfg.Capture.Device = DefaultInput()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultInput returns the ffmpeg input driver and device for the running OS.
func DefaultInput() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

// Validate checks ranges that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	switch {
	case c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000:
		return fmt.Errorf("config: sample rate %v out of range [8000, 192000]", c.Audio.SampleRate)
	case c.Audio.BlockSize < 16 || c.Audio.BlockSize > 8192:
		return fmt.Errorf("config: block size %d out of range [16, 8192]", c.Audio.BlockSize)
	case c.Audio.TimeConstant < 0:
		return fmt.Errorf("config: negative time constant %v", c.Audio.TimeConstant)
	case c.Audio.MasterGain < 0 || c.Audio.MasterGain > 1:
		return fmt.Errorf("config: master gain %v out of range [0, 1]", c.Audio.MasterGain)
	case c.Capture.Channels < 1 || c.Capture.Channels > 2:
		return fmt.Errorf("config: input channels %d must be 1 or 2", c.Capture.Channels)
	case c.Gemini.RequestsPerMinute <= 0:
		return fmt.Errorf("config: requests per minute must be positive")
	}
	return nil
}

// HasRemote reports whether an API key for the voice service is set.
func (c *Config) HasRemote() bool {
	return c.Gemini.APIKey != ""
}
