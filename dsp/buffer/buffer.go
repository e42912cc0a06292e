package buffer

import (
	"errors"
	"time"
)

// ErrChannelMismatch is returned when channels of an Audio differ in length.
var ErrChannelMismatch = errors.New("buffer: channels have different lengths")

// Audio is planar PCM at a fixed sample rate. Samples are nominally in
// [-1, 1].
type Audio struct {
	SampleRate float64
	Channels   [][]float64
}

// NewAudio allocates a silent buffer of the given shape.
func NewAudio(sampleRate float64, channels, frames int) *Audio {
	if channels < 0 {
		channels = 0
	}
	if frames < 0 {
		frames = 0
	}
	a := &Audio{SampleRate: sampleRate, Channels: make([][]float64, channels)}
	for i := range a.Channels {
		a.Channels[i] = make([]float64, frames)
	}
	return a
}

// NumChannels returns the channel count.
func (a *Audio) NumChannels() int {
	return len(a.Channels)
}

// Frames returns the per-channel sample count.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}
	return len(a.Channels[0])
}

// Duration returns the playing time at SampleRate.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(a.Frames()) / a.SampleRate * float64(time.Second))
}

// Validate checks that every channel has the same length.
func (a *Audio) Validate() error {
	n := a.Frames()
	for _, ch := range a.Channels {
		if len(ch) != n {
			return ErrChannelMismatch
		}
	}
	return nil
}

// Channel returns channel i, or nil when out of range.
func (a *Audio) Channel(i int) []float64 {
	if i < 0 || i >= len(a.Channels) {
		return nil
	}
	return a.Channels[i]
}

// Copy returns a deep copy.
func (a *Audio) Copy() *Audio {
	c := &Audio{SampleRate: a.SampleRate, Channels: make([][]float64, len(a.Channels))}
	for i, ch := range a.Channels {
		c.Channels[i] = append([]float64(nil), ch...)
	}
	return c
}

// Interleave writes frames into dst as L R L R ... and returns dst resized.
func (a *Audio) Interleave(dst []float64) []float64 {
	nch, n := len(a.Channels), a.Frames()
	if cap(dst) < nch*n {
		dst = make([]float64, nch*n)
	}
	dst = dst[:nch*n]
	for c, ch := range a.Channels {
		for i, v := range ch {
			dst[i*nch+c] = v
		}
	}
	return dst
}

// Deinterleave splits interleaved samples into a new Audio.
func Deinterleave(sampleRate float64, channels int, data []float64) *Audio {
	if channels <= 0 {
		return &Audio{SampleRate: sampleRate}
	}
	frames := len(data) / channels
	a := NewAudio(sampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			a.Channels[c][i] = data[i*channels+c]
		}
	}
	return a
}
