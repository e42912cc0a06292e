// Package biquad provides the second-order IIR runtime behind the per-track
// tone controls.
//
// A [Section] implements Direct Form II Transposed processing for one set of
// [Coefficients]; [Chain] cascades sections and lets each one be retuned in
// place. Block processing picks an unrolled kernel based on the CPU features
// reported by algo-vecmath. Coefficient design lives in dsp/filter/design.
package biquad
