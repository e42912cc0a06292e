// Package analyser is a read-only spectrum and level tap.
//
// An [Analyser] keeps the most recent FFTSize mono samples written to it and
// derives Web Audio compatible views from them on request: smoothed
// frequency magnitudes in dB or scaled bytes, raw time-domain samples, and
// peak/RMS meters. Writing never changes the audio that passes through the
// caller.
package analyser

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/dsp/window"
)

const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	minFFTSize = 32
	maxFFTSize = 32768

	// FloorDB is reported for bins with no energy.
	FloorDB = -200.0
)

var (
	// ErrInvalidFFTSize is returned for sizes that are not a power of two in
	// [32, 32768].
	ErrInvalidFFTSize = errors.New("analyser: fft size must be a power of two in [32, 32768]")
	// ErrInvalidRange is returned when the decibel range is empty.
	ErrInvalidRange = errors.New("analyser: min decibels must be below max decibels")
)

// Config holds analyser settings.
type Config struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// Option configures an Analyser.
type Option func(*Config)

// WithFFTSize sets the analysis frame length.
func WithFFTSize(n int) Option {
	return func(c *Config) { c.FFTSize = n }
}

// WithSmoothing sets the spectral averaging constant in [0, 1].
func WithSmoothing(s float64) Option {
	return func(c *Config) {
		if core.IsFinite(s) {
			c.Smoothing = core.Clamp(s, 0, 1)
		}
	}
}

// WithDecibelRange sets the range mapped onto 0..255 by ByteFrequencyData.
func WithDecibelRange(minDB, maxDB float64) Option {
	return func(c *Config) {
		c.MinDecibels = minDB
		c.MaxDecibels = maxDB
	}
}

// Analyser is safe for one writer and any number of readers.
type Analyser struct {
	mu  sync.Mutex
	cfg Config

	ring   []float64
	write  int
	window []float64
	plan   *algofft.Plan[complex128]

	frame    []complex128
	spectrum []complex128
	re, im   []float64
	mag      []float64
	smoothed []float64
}

// New returns an analyser. With no options it uses a 2048-point Blackman
// frame, smoothing 0.8 and a -100..-30 dB byte range.
func New(opts ...Option) (*Analyser, error) {
	cfg := Config{
		FFTSize:     DefaultFFTSize,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := cfg.FFTSize
	if n < minFFTSize || n > maxFFTSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTSize, n)
	}
	if !(cfg.MinDecibels < cfg.MaxDecibels) {
		return nil, ErrInvalidRange
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("analyser: fft plan: %w", err)
	}

	bins := n / 2
	return &Analyser{
		cfg:      cfg,
		ring:     make([]float64, n),
		window:   window.Generate(window.TypeBlackman, n, window.WithPeriodic()),
		plan:     plan,
		frame:    make([]complex128, n),
		spectrum: make([]complex128, n),
		re:       make([]float64, bins),
		im:       make([]float64, bins),
		mag:      make([]float64, bins),
		smoothed: make([]float64, bins),
	}, nil
}

// Config returns the active settings.
func (a *Analyser) Config() Config {
	return a.cfg
}

// FFTSize returns the frame length.
func (a *Analyser) FFTSize() int {
	return a.cfg.FFTSize
}

// FrequencyBinCount returns FFTSize/2.
func (a *Analyser) FrequencyBinCount() int {
	return a.cfg.FFTSize / 2
}

// Write appends mono samples to the history.
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	if len(samples) >= n {
		copy(a.ring, samples[len(samples)-n:])
		a.write = 0
		return
	}
	for len(samples) > 0 {
		c := copy(a.ring[a.write:], samples)
		samples = samples[c:]
		a.write = (a.write + c) % n
	}
}

// Reset clears history and smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.smoothed)
	a.write = 0
}

// FloatFrequencyData computes a new smoothed frame and returns it in dB,
// one value per bin. dst is reused when large enough.
func (a *Analyser) FloatFrequencyData(dst []float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	dst = core.EnsureLen(dst, len(a.smoothed))
	for i, m := range a.smoothed {
		dst[i] = magToDB(m)
	}
	return dst
}

// ByteFrequencyData computes a new smoothed frame and maps
// [MinDecibels, MaxDecibels] linearly onto 0..255.
func (a *Analyser) ByteFrequencyData(dst []byte) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	if cap(dst) < len(a.smoothed) {
		dst = make([]byte, len(a.smoothed))
	}
	dst = dst[:len(a.smoothed)]

	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for i, m := range a.smoothed {
		v := math.Floor(scale * (magToDB(m) - a.cfg.MinDecibels))
		dst[i] = byte(core.Clamp(v, 0, 255))
	}
	return dst
}

// TimeDomainData returns the last FFTSize samples, oldest first.
func (a *Analyser) TimeDomainData(dst []float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	dst = core.EnsureLen(dst, len(a.ring))
	a.ordered(dst)
	return dst
}

// ByteTimeDomainData maps the last FFTSize samples onto 0..255 with 128 as
// silence.
func (a *Analyser) ByteTimeDomainData(dst []byte) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cap(dst) < len(a.ring) {
		dst = make([]byte, len(a.ring))
	}
	dst = dst[:len(a.ring)]
	for i := range dst {
		x := a.ring[(a.write+i)%len(a.ring)]
		dst[i] = byte(core.Clamp(math.Floor(128*(1+x)), 0, 255))
	}
	return dst
}

// Levels returns the peak absolute sample and the RMS of the history.
func (a *Analyser) Levels() (peak, rms float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sum float64
	for _, x := range a.ring {
		peak = math.Max(peak, math.Abs(x))
		sum += x * x
	}
	return peak, math.Sqrt(sum / float64(len(a.ring)))
}

func (a *Analyser) ordered(dst []float64) {
	c := copy(dst, a.ring[a.write:])
	copy(dst[c:], a.ring[:a.write])
}

// analyse windows the history, transforms it and folds the normalized
// magnitudes into the running average.
func (a *Analyser) analyse() {
	n := len(a.ring)
	for i := range a.frame {
		a.frame[i] = complex(a.ring[(a.write+i)%n]*a.window[i], 0)
	}

	if err := a.plan.Forward(a.spectrum, a.frame); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.spectrum[k])
		a.im[k] = imag(a.spectrum[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	tau := a.cfg.Smoothing
	inv := 1 / float64(n)
	for k, m := range a.mag {
		v := tau*a.smoothed[k] + (1-tau)*m*inv
		if !core.IsFinite(v) {
			v = 0
		}
		a.smoothed[k] = v
	}
}

func magToDB(m float64) float64 {
	if m <= 0 {
		return FloorDB
	}
	return math.Max(20*math.Log10(m), FloorDB)
}
