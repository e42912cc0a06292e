package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/algo-studio/dsp/buffer"
)

// DecodePCM16 converts interleaved little-endian signed 16-bit samples.
// A trailing partial frame is an error.
func DecodePCM16(data []byte, sampleRate, channels int) (*buffer.Audio, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, decodeErr("pcm", fmt.Errorf("%w: rate %d, channels %d", ErrUnsupportedFormat, sampleRate, channels))
	}
	frameBytes := 2 * channels
	if len(data)%frameBytes != 0 {
		return nil, decodeErr("pcm", fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames", ErrTruncated, len(data), frameBytes))
	}

	frames := len(data) / frameBytes
	out := buffer.NewAudio(float64(sampleRate), channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameBytes + 2*c
			v := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			out.Channels[c][i] = float64(v) / 32768
		}
	}
	return out, nil
}

// EncodePCM16 interleaves a into little-endian signed 16-bit samples.
func EncodePCM16(a *buffer.Audio) []byte {
	nch, frames := a.NumChannels(), a.Frames()
	out := make([]byte, 2*nch*frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			v := math.Max(-1, math.Min(1, a.Channels[c][i]))
			binary.LittleEndian.PutUint16(out[2*(i*nch+c):], uint16(int16(math.Round(v*32767))))
		}
	}
	return out
}
