package buffer

import (
	"errors"
	"testing"
	"time"
)

func TestAudioDuration(t *testing.T) {
	a := NewAudio(44100, 2, 44100*3/2)
	if got := a.Duration(); got != 1500*time.Millisecond {
		t.Fatalf("Duration() = %v, want 1.5s", got)
	}
	if a.NumChannels() != 2 || a.Frames() != 66150 {
		t.Fatalf("shape = %dx%d", a.NumChannels(), a.Frames())
	}
	if (&Audio{}).Duration() != 0 {
		t.Fatal("zero rate must give zero duration")
	}
}

func TestAudioValidate(t *testing.T) {
	a := &Audio{SampleRate: 8000, Channels: [][]float64{make([]float64, 3), make([]float64, 4)}}
	if err := a.Validate(); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("Validate() = %v, want ErrChannelMismatch", err)
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	a := &Audio{SampleRate: 8000, Channels: [][]float64{{1, 2, 3}, {-1, -2, -3}}}
	il := a.Interleave(nil)
	want := []float64{1, -1, 2, -2, 3, -3}
	for i := range want {
		if il[i] != want[i] {
			t.Fatalf("interleaved[%d] = %v, want %v", i, il[i], want[i])
		}
	}
	b := Deinterleave(8000, 2, il)
	for c := range a.Channels {
		for i := range a.Channels[c] {
			if b.Channels[c][i] != a.Channels[c][i] {
				t.Fatalf("ch %d idx %d mismatch", c, i)
			}
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	a := &Audio{SampleRate: 8000, Channels: [][]float64{{1, 2}}}
	c := a.Copy()
	c.Channels[0][0] = 9
	if a.Channels[0][0] != 1 {
		t.Fatal("Copy shares backing storage")
	}
	if a.Channel(3) != nil {
		t.Fatal("out of range channel should be nil")
	}
}

func TestPoolReuseIsZeroed(t *testing.T) {
	p := NewPool()
	s := p.Get(4)
	(*s)[0] = 42
	p.Put(s)

	s2 := p.Get(4)
	for i, v := range *s2 {
		if v != 0 {
			t.Fatalf("reused[%d] = %v, want 0", i, v)
		}
	}
	p.Put(s2)
	p.Put(nil)
}
