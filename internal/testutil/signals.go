// Package testutil holds deterministic signals and tolerance checks shared by
// the DSP and graph tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns length samples of a sine at freqHz.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise returns seeded white noise in [-amplitude, amplitude].
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse returns a unit impulse at pos.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// Constant returns length copies of value.
func Constant(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// RMS returns the root mean square of data, or 0 for an empty slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// PCM16 encodes samples as little-endian signed 16-bit interleaved PCM.
// channels must all have the same length.
func PCM16(channels ...[]float64) []byte {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]byte, 0, frames*len(channels)*2)
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			v := int16(math.Round(math.Max(-1, math.Min(1, ch[i])) * 32767))
			out = append(out, byte(v), byte(uint16(v)>>8))
		}
	}
	return out
}
