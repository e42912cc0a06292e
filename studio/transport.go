package studio

import (
	"math"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/graph"
)

// Play starts every region from the playhead.
func (s *Studio) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return
	}
	s.playing = true
	s.eachRegionLocked((*graph.BufferSource).Play)
	s.log.Debug("transport play", zap.Float64("position", s.pos))
}

// Pause holds the playhead where it is.
func (s *Studio) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

// Stop pauses and rewinds to zero.
func (s *Studio) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
	s.seekLocked(0)
}

// Cue returns to the cue point while playing. While stopped it stores the
// playhead as the new cue point.
func (s *Studio) Cue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.pauseLocked()
		s.seekLocked(s.cue)
		return
	}
	s.cue = s.positionLocked()
}

// CuePoint returns the stored cue point in seconds.
func (s *Studio) CuePoint() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cue
}

// Seek moves the playhead to seconds, clamped to the project length.
func (s *Studio) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(seconds)
}

// SeekBy moves the playhead by delta seconds, clamped to the project length.
func (s *Studio) SeekBy(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(s.positionLocked() + delta)
}

// Position returns the playhead in seconds. It advances with rendering
// while playing and at least one region holds audio.
func (s *Studio) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// Playing reports whether the transport runs.
func (s *Studio) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Duration returns the project length in seconds.
func (s *Studio) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Studio) pauseLocked() {
	if !s.playing {
		return
	}
	s.pos = s.positionLocked()
	s.playing = false
	s.eachRegionLocked((*graph.BufferSource).Pause)
}

func (s *Studio) seekLocked(seconds float64) {
	if !core.IsFinite(seconds) {
		return
	}
	s.pos = core.Clamp(seconds, 0, s.duration)
	frame := s.frame(s.pos)
	s.eachRegionLocked(func(b *graph.BufferSource) { b.Seek(frame) })
}

func (s *Studio) positionLocked() float64 {
	pos := s.pos
	if s.playing {
		for _, src := range s.sources {
			found := false
			src.each(func(b *graph.BufferSource) {
				if !found {
					pos = float64(b.Position()) / s.engine.SampleRate()
					found = true
				}
			})
			if found {
				break
			}
		}
	}
	return math.Min(pos, s.duration)
}

func (s *Studio) eachRegionLocked(fn func(*graph.BufferSource)) {
	for _, src := range s.sources {
		src.each(fn)
	}
}

func (s *Studio) frame(seconds float64) int {
	return int(math.Round(seconds * s.engine.SampleRate()))
}
