package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-studio/dsp/buffer"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Decode turns a complete encoded file into samples. Only WAV is recognised
// without a media type; use [Decoder] for raw PCM and compressed formats.
func Decode(data []byte) (*buffer.Audio, error) {
	if len(data) == 0 {
		return nil, decodeErr("", ErrEmpty)
	}
	if !looksLikeWAV(data) {
		return nil, decodeErr("", ErrUnsupportedFormat)
	}
	return decodeWAV(data)
}

func looksLikeWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func decodeWAV(data []byte) (*buffer.Audio, error) {
	if err := checkRIFF(data); err != nil {
		return nil, decodeErr("wav", err)
	}

	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, decodeErr("wav", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, decodeErr("wav", fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, d.WavAudioFormat))
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, decodeErr("wav", err)
	}

	nch := int(d.NumChans)
	bits := int(d.BitDepth)
	if nch <= 0 || bits < 8 || bits > 32 {
		return nil, decodeErr("wav", ErrUnsupportedFormat)
	}

	frames := len(pcm.Data) / nch
	out := buffer.NewAudio(float64(d.SampleRate), nch, frames)
	scale := 1 / float64(int64(1)<<(bits-1))
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			v := pcm.Data[i*nch+c]
			if bits == 8 {
				// 8-bit WAV is unsigned.
				v -= 128
			}
			out.Channels[c][i] = float64(v) * scale
		}
	}
	return out, nil
}

// checkRIFF walks the chunk list and rejects files whose chunks run past the
// end of the input.
func checkRIFF(data []byte) error {
	if !looksLikeWAV(data) {
		return ErrUnsupportedFormat
	}
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if size > len(data)-off {
			return fmt.Errorf("%w: %s chunk wants %d bytes, %d left", ErrTruncated, id, size, len(data)-off)
		}
		if id == "data" {
			return nil
		}
		off += size + size&1
	}
	return fmt.Errorf("%w: no data chunk", ErrTruncated)
}

// EncodeWAV writes a as integer PCM WAV at the given bit depth (16 or 24).
func EncodeWAV(a *buffer.Audio, bitDepth int) ([]byte, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("codec: unsupported bit depth %d", bitDepth)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	nch := a.NumChannels()
	if nch == 0 {
		return nil, errors.New("codec: no channels to encode")
	}

	full := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, 0, nch*a.Frames())
	for i := 0; i < a.Frames(); i++ {
		for c := 0; c < nch; c++ {
			v := math.Max(-1, math.Min(1, a.Channels[c][i]))
			data = append(data, int(math.Round(v*full)))
		}
	}

	ws := &seekBuffer{}
	enc := wav.NewEncoder(ws, int(a.SampleRate), bitDepth, nch, wavFormatPCM)
	err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: int(a.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("codec: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("codec: finalize wav: %w", err)
	}
	return ws.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder patches the
// header sizes after the samples are written.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, errors.New("codec: invalid whence")
	}
	next := base + offset
	if next < 0 {
		return 0, errors.New("codec: negative seek")
	}
	s.pos = int(next)
	return next, nil
}
