package studio

import (
	"sync"

	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/graph"
)

// trackSource mixes the regions of one track. Every region keeps its own
// playhead; all of them are read each block so they stay in step.
type trackSource struct {
	mu       sync.Mutex
	regions  []*graph.BufferSource
	channels int
	scratch  [2][]float64
}

func newTrackSource() *trackSource {
	return &trackSource{channels: 1}
}

func (s *trackSource) add(a *buffer.Audio, start int) *graph.BufferSource {
	src := graph.NewBufferSource(a, start)
	s.mu.Lock()
	s.regions = append(s.regions, src)
	s.channels = max(s.channels, src.NumChannels())
	s.mu.Unlock()
	return src
}

func (s *trackSource) each(fn func(*graph.BufferSource)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		fn(r)
	}
}

func (s *trackSource) NumChannels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels
}

func (s *trackSource) ReadFrames(dst [][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(dst) == 0 {
		return
	}
	n := len(dst[0])
	for _, out := range dst {
		clear(out)
	}
	for c := range s.scratch {
		if cap(s.scratch[c]) < n {
			s.scratch[c] = make([]float64, n)
		}
		s.scratch[c] = s.scratch[c][:n]
	}

	for _, r := range s.regions {
		rc := r.NumChannels()
		r.ReadFrames(s.scratch[:rc])
		for c, out := range dst {
			in := s.scratch[min(c, rc-1)]
			for i := range out {
				out[i] += in[i]
			}
		}
	}
}
