// Package window generates the tapering windows used by the analyser tap.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// String returns the lower-case window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeBlackman:
		return "blackman"
	default:
		return "unknown"
	}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic (DFT-even) form used for FFT framing.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns length coefficients of window t. Unknown types yield a
// rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	den := float64(length - 1)
	if cfg.periodic || length == 1 {
		den = float64(length)
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = eval(t, float64(i)/den)
	}
	return out
}

// Apply multiplies buf in place by coeffs. It reports false when the lengths
// differ and buf is left untouched.
func Apply(buf, coeffs []float64) bool {
	if len(buf) != len(coeffs) {
		return false
	}
	vecmath.MulBlockInPlace(buf, coeffs)
	return true
}

// CoherentGain returns the mean of coeffs.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return sum / float64(len(coeffs))
}

func eval(t Type, x float64) float64 {
	phase := 2 * math.Pi * x
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(phase)
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(phase)
	case TypeBlackman:
		// alpha = 0.16
		return 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2*phase)
	default:
		return 1
	}
}
