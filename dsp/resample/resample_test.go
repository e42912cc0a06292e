package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/internal/testutil"
)

func TestApproximateRatio(t *testing.T) {
	tests := []struct {
		in, out  float64
		up, down int
	}{
		{44100, 48000, 160, 147},
		{48000, 44100, 147, 160},
		{24000, 48000, 2, 1},
		{16000, 48000, 3, 1},
		{48000, 48000, 1, 1},
	}
	for _, tc := range tests {
		up, down := approximateRatio(tc.out/tc.in, 1024)
		if up != tc.up || down != tc.down {
			t.Fatalf("%v->%v: got %d/%d, want %d/%d", tc.in, tc.out, up, down, tc.up, tc.down)
		}
	}
}

func TestInvalidInputs(t *testing.T) {
	if _, err := NewConverter(0, 1); !errors.Is(err, ErrInvalidRatio) {
		t.Fatalf("err = %v, want ErrInvalidRatio", err)
	}
	if _, err := ForRates(-1, 48000); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}
	if _, err := Audio(&buffer.Audio{SampleRate: math.NaN()}, 48000); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}
}

func TestAudioKeepsDurationAndLevel(t *testing.T) {
	in := &buffer.Audio{
		SampleRate: 24000,
		Channels:   [][]float64{testutil.Sine(440, 24000, 0.5, 24000)},
	}
	out, err := Audio(in, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if out.Frames() != 48000 {
		t.Fatalf("frames = %d, want 48000", out.Frames())
	}
	if d := out.Duration() - in.Duration(); d < -1e6 || d > 1e6 {
		t.Fatalf("duration changed by %v", d)
	}

	mid := out.Channels[0][4800:43200]
	if r := testutil.RMS(mid); math.Abs(r-0.5/math.Sqrt2) > 0.01 {
		t.Fatalf("RMS = %v, want ~%v", r, 0.5/math.Sqrt2)
	}

	// Delay compensated: output lines up with an ideal 48 kHz sine.
	ref := testutil.Sine(440, 48000, 0.5, 48000)[4800:43200]
	diff := 0.0
	for i := range mid {
		diff = math.Max(diff, math.Abs(mid[i]-ref[i]))
	}
	if diff > 0.03 {
		t.Fatalf("max deviation from ideal = %v", diff)
	}
}

func TestAudioSameRateCopies(t *testing.T) {
	in := &buffer.Audio{SampleRate: 48000, Channels: [][]float64{{1, 2, 3}}}
	out, err := Audio(in, 48000)
	if err != nil {
		t.Fatal(err)
	}
	out.Channels[0][0] = 0
	if in.Channels[0][0] != 1 {
		t.Fatal("same-rate conversion must not alias the input")
	}
}

func TestStreamingMatchesOneShot(t *testing.T) {
	x := testutil.Noise(3, 1, 1000)

	a, _ := NewConverter(3, 2)
	whole := a.Process(nil, x)

	b, _ := NewConverter(3, 2)
	var parts []float64
	for i := 0; i < len(x); i += 77 {
		parts = b.Process(parts, x[i:min(i+77, len(x))])
	}
	testutil.RequireSliceNearlyEqual(t, parts, whole, 1e-12)
}
