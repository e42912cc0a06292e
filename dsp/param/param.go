// Package param implements smoothed automation parameters.
//
// A [Param] moves toward its target along v(t) = target + (v0-target)·e^(-t/τ),
// the same curve as a Web Audio setTargetAtTime call. Setters only record the
// target; the render loop advances the value one sample at a time.
package param

import (
	"math"

	"github.com/cwbudde/algo-studio/dsp/core"
)

// DefaultTimeConstant is the 100 ms ramp used for every live mix change.
const DefaultTimeConstant = 0.1

// settleEpsilon is the distance at which the value snaps onto the target.
const settleEpsilon = 1e-7

// Param is a single smoothed value. It is not safe for concurrent use; the
// owner serializes SetTargetAtTime against rendering.
type Param struct {
	value  float64
	target float64
	lo, hi float64

	tau        float64
	sampleRate float64
	alpha      float64
}

// New returns a parameter at initial, clamped to [lo, hi]. tau is the time
// constant in seconds; non-positive values make changes immediate.
func New(initial, lo, hi, sampleRate, tau float64) *Param {
	if lo > hi {
		lo, hi = hi, lo
	}
	p := &Param{lo: lo, hi: hi, sampleRate: sampleRate}
	v := core.Clamp(initial, lo, hi)
	p.value, p.target = v, v
	p.SetTimeConstant(tau)
	return p
}

// SetTimeConstant changes the ramp time constant.
func (p *Param) SetTimeConstant(tau float64) {
	p.tau = tau
	if tau <= 0 || p.sampleRate <= 0 || !core.IsFinite(tau) {
		p.alpha = 1
		return
	}
	p.alpha = 1 - math.Exp(-1/(tau*p.sampleRate))
}

// SetTargetAtTime starts a ramp from the current value toward target.
// The target is clamped to the parameter range. NaN and Inf are ignored and
// reported as false.
func (p *Param) SetTargetAtTime(target float64) bool {
	if !core.IsFinite(target) {
		return false
	}
	p.target = core.Clamp(target, p.lo, p.hi)
	return true
}

// SetValue jumps to v without a ramp.
func (p *Param) SetValue(v float64) bool {
	if !core.IsFinite(v) {
		return false
	}
	v = core.Clamp(v, p.lo, p.hi)
	p.value, p.target = v, v
	return true
}

// Value returns the current smoothed value.
func (p *Param) Value() float64 { return p.value }

// Target returns the value being approached.
func (p *Param) Target() float64 { return p.target }

// Range returns the clamp bounds.
func (p *Param) Range() (lo, hi float64) { return p.lo, p.hi }

// Settled reports whether the value has reached the target.
func (p *Param) Settled() bool { return p.value == p.target }

// Next advances one sample and returns the new value.
func (p *Param) Next() float64 {
	if p.value == p.target {
		return p.value
	}
	p.value += p.alpha * (p.target - p.value)
	if math.Abs(p.target-p.value) <= settleEpsilon {
		p.value = p.target
	}
	return p.value
}

// Fill writes one value per sample into dst.
func (p *Param) Fill(dst []float64) {
	if p.Settled() {
		for i := range dst {
			dst[i] = p.value
		}
		return
	}
	for i := range dst {
		dst[i] = p.Next()
	}
}

// Advance moves the value forward n samples in closed form. Used at control
// rate where per-sample values are not needed.
func (p *Param) Advance(n int) float64 {
	if n <= 0 || p.value == p.target {
		return p.value
	}
	decay := math.Pow(1-p.alpha, float64(n))
	p.value = p.target + (p.value-p.target)*decay
	if math.Abs(p.target-p.value) <= settleEpsilon {
		p.value = p.target
	}
	return p.value
}
