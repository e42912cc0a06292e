package graph

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-studio/dsp/filter/biquad"
	"github.com/cwbudde/algo-studio/dsp/filter/design"
	"github.com/cwbudde/algo-studio/dsp/pan"
	"github.com/cwbudde/algo-studio/dsp/param"
)

// Chain defaults for a freshly created track.
const (
	DefaultVolume = 0.8
	DefaultPan    = 0.0
)

// controlInterval is how many frames share one set of EQ coefficients while
// a band is ramping.
const controlInterval = 32

// Chain is the processing path of one track. Handles stay valid after the
// chain is removed but no longer affect output.
type Chain struct {
	id         string
	mu         *sync.Mutex
	sampleRate float64

	src     Source
	eq      [2]*biquad.Chain
	tones   [numBands]*design.Tone
	bands   [numBands]*param.Param
	applied [numBands]float64
	volume  *param.Param
	pan     *param.Param

	work    [2][]float64
	panBuf  []float64
	gainBuf []float64
	removed bool
}

func newChain(id string, mu *sync.Mutex, sampleRate, tau float64, blockSize int) *Chain {
	c := &Chain{
		id:         id,
		mu:         mu,
		sampleRate: sampleRate,
		volume:     param.New(DefaultVolume, 0, 1, sampleRate, tau),
		pan:        param.New(DefaultPan, -1, 1, sampleRate, tau),
		panBuf:     make([]float64, blockSize),
		gainBuf:    make([]float64, blockSize),
	}

	flat := make([]biquad.Coefficients, numBands)
	for b := BandLow; b < numBands; b++ {
		tone, ok := b.tone(sampleRate)
		if !ok {
			// Sample rate too low for the band; leave it transparent.
			flat[b] = biquad.Identity()
		} else {
			c.tones[b] = tone
			flat[b] = tone.Coefficients(0)
		}
		c.bands[b] = param.New(0, -MaxEQGainDB, MaxEQGainDB, sampleRate, tau)
	}
	for k := range c.eq {
		c.eq[k] = biquad.NewChain(flat...)
		c.work[k] = make([]float64, blockSize)
	}
	return c
}

// ID returns the track id the chain was created for.
func (c *Chain) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Attach connects src to the chain input, replacing any previous source.
func (c *Chain) Attach(src Source) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removed {
		c.src = src
	}
}

// Detach disconnects the input.
func (c *Chain) Detach() {
	c.Attach(nil)
}

// Source returns the attached input, if any.
func (c *Chain) Source() Source {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

// Volume returns the gain the chain is moving toward.
func (c *Chain) Volume() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume.Target()
}

// Pan returns the pan position the chain is moving toward.
func (c *Chain) Pan() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pan.Target()
}

// EQGain returns the target gain of band b in dB.
func (c *Chain) EQGain(b Band) float64 {
	if c == nil || !b.valid() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bands[b].Target()
}

// EQResponseDB returns the magnitude response of the EQ stages at freq with
// their current coefficients.
func (c *Chain) EQResponseDB(freq float64) float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eq[0].MagnitudeDB(freq, c.sampleRate)
}

// Removed reports whether the chain has been torn down.
func (c *Chain) Removed() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed
}

// teardown disconnects the chain. The caller holds mu.
func (c *Chain) teardown() {
	c.removed = true
	c.src = nil
	for _, eq := range c.eq {
		eq.Reset()
	}
}

// render mixes n frames of the chain into outL and outR. The caller holds mu.
func (c *Chain) render(n int, outL, outR []float64) {
	if c.src == nil {
		c.skip(n)
		return
	}

	nch := min(max(c.src.NumChannels(), 1), 2)
	l, r := c.work[0][:n], c.work[1][:n]
	if nch == 1 {
		c.src.ReadFrames([][]float64{l})
	} else {
		c.src.ReadFrames([][]float64{l, r})
	}

	for start := 0; start < n; start += controlInterval {
		end := min(start+controlInterval, n)
		for _, p := range c.bands {
			p.Advance(end - start)
		}
		c.retune()
		c.eq[0].ProcessBlock(l[start:end])
		if nch == 2 {
			c.eq[1].ProcessBlock(r[start:end])
		}
	}

	positions := c.panBuf[:n]
	c.pan.Fill(positions)
	if nch == 1 {
		pan.ProcessMono(l, positions, l, r)
	} else {
		pan.ProcessStereo(l, r, positions)
	}

	gains := c.gainBuf[:n]
	c.volume.Fill(gains)
	vecmath.MulBlockInPlace(l, gains)
	vecmath.MulBlockInPlace(r, gains)

	vecmath.AddBlockInPlace(outL, l)
	vecmath.AddBlockInPlace(outR, r)
}

// skip advances every parameter without producing audio so ramps stay on
// the clock while nothing is attached.
func (c *Chain) skip(n int) {
	for _, p := range c.bands {
		p.Advance(n)
	}
	c.volume.Advance(n)
	c.pan.Advance(n)
}

func (c *Chain) retune() {
	for b, p := range c.bands {
		v := p.Value()
		if v == c.applied[b] || c.tones[b] == nil {
			continue
		}
		coeffs := c.tones[b].Coefficients(v)
		for _, eq := range c.eq {
			eq.SetSection(b, coeffs)
		}
		c.applied[b] = v
	}
}
