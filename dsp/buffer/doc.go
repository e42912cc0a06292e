// Package buffer holds decoded multichannel audio and reusable scratch
// storage for the render path.
package buffer
