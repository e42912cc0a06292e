// Package graph is the live audio graph behind the studio mixer.
//
// A [Manager] owns one master bus and a registry of per-track chains. Each
// chain runs its source through a low shelf (320 Hz), a peaking stage
// (1 kHz, Q 1), a high shelf (3.2 kHz), an equal-power stereo panner and a
// gain stage before summing into the bus. The bus applies master gain and
// feeds a read-only analyser tap on its way to the output sink.
//
// Setters only record targets. Every change ramps toward its target with a
// 100 ms exponential time constant while the graph renders, so moving a fader
// or EQ knob never produces a step in the output. Gain and pan move per
// sample; EQ coefficients are recomputed every 32 samples with filter state
// carried across the change.
//
// Operations addressed at an unknown track id do nothing.
package graph
