package graph

import (
	"sync"

	"github.com/cwbudde/algo-studio/dsp/buffer"
)

// Source feeds dry audio into a chain. Sources are pulled from the render
// goroutine.
type Source interface {
	// NumChannels reports 1 or 2. It is read once per block.
	NumChannels() int
	// ReadFrames fills every slice of dst with the next frames. Frames the
	// source cannot supply are written as zero.
	ReadFrames(dst [][]float64)
}

// BufferSource plays a decoded clip placed at a position on a timeline.
// It starts paused.
type BufferSource struct {
	mu      sync.Mutex
	audio   *buffer.Audio
	start   int
	pos     int
	playing bool
}

// NewBufferSource places a at timeline frame start.
func NewBufferSource(a *buffer.Audio, start int) *BufferSource {
	return &BufferSource{audio: a, start: start}
}

// NumChannels reports 1 for mono audio and 2 otherwise.
func (s *BufferSource) NumChannels() int {
	return min(max(s.audio.NumChannels(), 1), 2)
}

// ReadFrames fills dst with the next frames and advances the position while
// playing. Frames before the start offset or past the end are silence.
func (s *BufferSource) ReadFrames(dst [][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(dst) == 0 {
		return
	}
	n := len(dst[0])
	for c, out := range dst {
		clear(out)
		if !s.playing || c >= s.audio.NumChannels() {
			continue
		}
		src := s.audio.Channels[c]
		for i := range out {
			if idx := s.pos + i - s.start; idx >= 0 && idx < len(src) {
				out[i] = src[idx]
			}
		}
	}
	if s.playing {
		s.pos += n
	}
}

// Play resumes advancing the timeline.
func (s *BufferSource) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

// Pause stops advancing; ReadFrames yields silence.
func (s *BufferSource) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Seek moves the playhead to timeline frame pos.
func (s *BufferSource) Seek(pos int) {
	s.mu.Lock()
	s.pos = max(pos, 0)
	s.mu.Unlock()
}

// Position returns the playhead in timeline frames.
func (s *BufferSource) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// End returns the timeline frame just past the clip.
func (s *BufferSource) End() int {
	return s.start + s.audio.Frames()
}
