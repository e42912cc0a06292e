package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-studio/dsp/buffer"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input or output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality selects the anti-aliasing filter length.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

type config struct {
	quality Quality
	maxDen  int
}

// Option configures a conversion.
type Option func(*config)

// WithQuality selects a filter quality. The default is QualityBalanced.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithMaxDenominator caps the denominator used when approximating a rate
// ratio. Larger values track odd ratios more exactly at the cost of more
// polyphase branches.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{quality: QualityBalanced, maxDen: 1024}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Converter is a single-channel streaming rate converter.
type Converter struct {
	up, down int
	phases   [][]float64
	delay    float64 // filter delay in output samples

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
	work       []float64
}

// NewConverter builds a converter for the ratio up/down.
func NewConverter(up, down int, opts ...Option) (*Converter, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}
	g := gcd(up, down)
	up /= g
	down /= g

	cfg := newConfig(opts)
	phases, nTaps, err := designPolyphase(up, down, cfg.quality.profile())
	if err != nil {
		return nil, err
	}

	return &Converter{
		up:     up,
		down:   down,
		phases: phases,
		delay:  0.5 * float64(nTaps-1) / float64(down),
	}, nil
}

// ForRates builds a converter approximating outRate/inRate.
func ForRates(inRate, outRate float64, opts ...Option) (*Converter, error) {
	if !validRate(inRate) || !validRate(outRate) {
		return nil, ErrInvalidRate
	}
	up, down := approximateRatio(outRate/inRate, newConfig(opts).maxDen)
	return NewConverter(up, down, opts...)
}

// Ratio returns the reduced conversion factors.
func (c *Converter) Ratio() (up, down int) {
	return c.up, c.down
}

// Delay returns the filter latency in output samples.
func (c *Converter) Delay() float64 {
	return c.delay
}

// Reset clears streaming state.
func (c *Converter) Reset() {
	c.phase = 0
	c.inputIndex = 0
	c.totalIn = 0
	c.history = c.history[:0]
}

// Process converts one block and appends the output to dst.
func (c *Converter) Process(dst, input []float64) []float64 {
	if len(input) == 0 {
		return dst
	}

	c.work = append(append(c.work[:0], c.history...), input...)
	base := c.totalIn - len(c.history)
	last := c.totalIn + len(input) - 1

	for c.inputIndex <= last {
		var y float64
		for k, h := range c.phases[c.phase] {
			idx := c.inputIndex - k
			if idx < base {
				break
			}
			y += h * c.work[idx-base]
		}
		dst = append(dst, y)

		c.phase += c.down
		c.inputIndex += c.phase / c.up
		c.phase %= c.up
	}
	c.totalIn += len(input)

	keep := min(len(c.phases[0])-1, len(c.work))
	c.history = append(c.history[:0], c.work[len(c.work)-keep:]...)
	return dst
}

// Audio converts a whole clip to outRate. The result has
// round(frames*outRate/inRate) frames and no filter delay.
func Audio(in *buffer.Audio, outRate float64, opts ...Option) (*buffer.Audio, error) {
	if in == nil || !validRate(in.SampleRate) || !validRate(outRate) {
		return nil, ErrInvalidRate
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.SampleRate == outRate {
		return in.Copy(), nil
	}

	out := &buffer.Audio{SampleRate: outRate, Channels: make([][]float64, len(in.Channels))}
	for i, ch := range in.Channels {
		conv, err := ForRates(in.SampleRate, outRate, opts...)
		if err != nil {
			return nil, err
		}
		up, down := conv.Ratio()
		want := int(math.Round(float64(len(ch)) * float64(up) / float64(down)))
		skip := int(math.Round(conv.delay))

		y := conv.Process(make([]float64, 0, want+skip+1), ch)
		pad := make([]float64, len(conv.phases[0])+(skip*down)/up+1)
		y = conv.Process(y, pad)

		res := make([]float64, want)
		if skip < len(y) {
			copy(res, y[skip:])
		}
		out.Channels[i] = res
	}
	return out, nil
}

func validRate(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}
