package core

import (
	"math"
	"testing"
)

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(44100), WithBlockSize(256), WithChannels(1))
	if cfg.SampleRate != 44100 {
		t.Fatalf("sample rate = %v, want 44100", cfg.SampleRate)
	}
	if cfg.BlockSize != 256 {
		t.Fatalf("block size = %d, want 256", cfg.BlockSize)
	}
	if cfg.Channels != 1 {
		t.Fatalf("channels = %d, want 1", cfg.Channels)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithSampleRate(math.NaN()), WithBlockSize(-1), WithChannels(6))
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}
