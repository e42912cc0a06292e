// Package core holds the numeric helpers and processor settings shared by the
// render graph and the DSP building blocks underneath it.
package core
