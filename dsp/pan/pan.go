// Package pan implements an equal-power stereo panner with the same law as
// the Web Audio StereoPannerNode.
//
// Mono input is spread across both outputs. Stereo input keeps its image:
// panning left folds part of the right channel into the left and vice versa.
package pan

import (
	"math"

	"github.com/cwbudde/algo-studio/dsp/core"
)

// MonoGains returns the left and right gains for a mono source at position
// p in [-1, 1]. The sum of squares is always 1.
func MonoGains(p float64) (left, right float64) {
	x := (core.Clamp(p, -1, 1) + 1) / 2
	return math.Cos(x * math.Pi / 2), math.Sin(x * math.Pi / 2)
}

// Stereo pans one stereo frame.
func Stereo(inL, inR, p float64) (outL, outR float64) {
	p = core.Clamp(p, -1, 1)
	if p <= 0 {
		x := (p + 1) * math.Pi / 2
		return inL + inR*math.Cos(x), inR * math.Sin(x)
	}
	x := p * math.Pi / 2
	return inL * math.Cos(x), inR + inL*math.Sin(x)
}

// ProcessMono writes the panned image of in to outL and outR. positions holds
// one pan value per sample. All slices must have the same length.
func ProcessMono(in, positions, outL, outR []float64) {
	for i, x := range in {
		gl, gr := MonoGains(positions[i])
		outL[i] = x * gl
		outR[i] = x * gr
	}
}

// ProcessStereo pans l and r in place with one pan value per sample.
func ProcessStereo(l, r, positions []float64) {
	for i := range l {
		l[i], r[i] = Stereo(l[i], r[i], positions[i])
	}
}
