// Package design provides RBJ ("Audio EQ Cookbook") coefficient designers for
// the shelving and peaking stages of a track's tone controls.
//
// [Tone] caches the frequency-dependent terms so a live gain ramp only pays
// for one power function per retune.
package design
