// Package studio is the application layer of the voice studio: a project of
// tracks mixed through a graph.Manager, a voice library and a transport.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/graph"
)

var (
	// ErrUnknownTrack is returned for ids that name no track.
	ErrUnknownTrack = errors.New("studio: unknown track")
	// ErrInvalidTrackType is returned by AddTrack for unknown types.
	ErrInvalidTrackType = errors.New("studio: invalid track type")
	// ErrNoVoiceService is returned by remote operations without a service.
	ErrNoVoiceService = errors.New("studio: no voice service configured")
	// ErrEmptyText is returned by SynthesizeTrack for blank text.
	ErrEmptyText = errors.New("studio: empty text")
	// ErrEmptyName is returned by CloneVoice without a name.
	ErrEmptyName = errors.New("studio: empty voice name")
)

// VoiceService is the remote speech backend.
type VoiceService interface {
	Synthesize(ctx context.Context, text, voice, mood string) (codec.Payload, error)
	Analyze(ctx context.Context, p codec.Payload) (string, error)
	Clean(ctx context.Context, p codec.Payload) (codec.Payload, error)
}

// Option configures a Studio.
type Option func(*Studio)

// WithVoiceService enables synthesis, analysis and cloning.
func WithVoiceService(v VoiceService) Option {
	return func(s *Studio) { s.service = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Studio) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDuration sets the project length in seconds.
func WithDuration(seconds float64) Option {
	return func(s *Studio) {
		if seconds > 0 && core.IsFinite(seconds) {
			s.duration = seconds
		}
	}
}

// Studio is safe for concurrent use.
type Studio struct {
	engine  *graph.Manager
	service VoiceService
	log     *zap.Logger
	newID   func() string

	mu       sync.Mutex
	tracks   []*Track
	sources  map[string]*trackSource
	voices   []VoiceProfile
	playing  bool
	pos      float64
	cue      float64
	duration float64
}

// New returns an empty project mixed through engine.
func New(engine *graph.Manager, opts ...Option) *Studio {
	if engine == nil {
		engine = graph.Disabled()
	}
	s := &Studio{
		engine:   engine,
		log:      zap.NewNop(),
		newID:    func() string { return uuid.NewString() },
		sources:  make(map[string]*trackSource),
		voices:   BuiltInVoices(),
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the audio graph.
func (s *Studio) Engine() *graph.Manager {
	return s.engine
}

// Tracks returns a snapshot of every track in creation order.
func (s *Studio) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.clone()
	}
	return out
}

// Track returns a snapshot of one track.
func (s *Studio) Track(id string) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return Track{}, false
	}
	return t.clone(), true
}

// AddTrack creates a track with one region at the playhead. clip may be nil,
// in which case the region is silent and DefaultRegionSeconds long.
func (s *Studio) AddTrack(typ TrackType, name string, clip *buffer.Audio) (Track, error) {
	if _, ok := ParseTrackType(string(typ)); !ok {
		return Track{}, fmt.Errorf("%w: %q", ErrInvalidTrackType, typ)
	}
	return s.addTrack(typ, name, DefaultTrackVolume, name, clip), nil
}

func (s *Studio) addTrack(typ TrackType, name string, volume float64, region string, clip *buffer.Audio) Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Track{
		ID:     s.newID(),
		Name:   name,
		Type:   typ,
		Volume: volume,
	}
	src := newTrackSource()
	s.tracks = append(s.tracks, t)
	s.sources[t.ID] = src

	chain := s.engine.CreateChain(t.ID)
	chain.Attach(src)
	s.addRegionLocked(t, region, clip)
	s.applyGainsLocked()

	s.log.Info("track added",
		zap.String("track", t.ID), zap.String("name", name), zap.String("type", string(typ)))
	return t.clone()
}

// AddRegion places clip on a track at the playhead.
func (s *Studio) AddRegion(trackID, name string, clip *buffer.Audio) (Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(trackID)
	if t == nil {
		return Region{}, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	return s.addRegionLocked(t, name, clip), nil
}

func (s *Studio) addRegionLocked(t *Track, name string, clip *buffer.Audio) Region {
	start := s.positionLocked()
	r := Region{
		ID:       s.newID(),
		Name:     name,
		Start:    start,
		Duration: DefaultRegionSeconds,
		Audio:    clip,
	}
	if clip != nil && clip.Frames() > 0 {
		r.Duration = clip.Duration().Seconds()
		frame := s.frame(start)
		src := s.sources[t.ID].add(clip, frame)
		src.Seek(frame)
		if s.playing {
			src.Play()
		}
	}
	t.Regions = append(t.Regions, r)
	return r
}

// RemoveTrack deletes a track and tears down its chain.
func (s *Studio) RemoveTrack(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tracks {
		if t.ID != id {
			continue
		}
		s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
		delete(s.sources, id)
		s.engine.RemoveChain(id)
		s.applyGainsLocked()
		s.log.Info("track removed", zap.String("track", id))
		return true
	}
	return false
}

// SetVolume sets the fader of a track, clamped to [0, 1].
func (s *Studio) SetVolume(id string, v float64) error {
	return s.updateTrack(id, func(t *Track) {
		if core.IsFinite(v) {
			t.Volume = core.Clamp(v, 0, 1)
		}
	})
}

// SetPan sets the stereo position of a track, clamped to [-1, 1].
func (s *Studio) SetPan(id string, v float64) error {
	return s.updateTrack(id, func(t *Track) {
		if core.IsFinite(v) {
			t.Pan = core.Clamp(v, -1, 1)
			s.engine.SetPan(id, t.Pan)
		}
	})
}

// SetEQ sets one band of a track in dB.
func (s *Studio) SetEQ(id string, b graph.Band, gainDB float64) error {
	return s.updateTrack(id, func(t *Track) {
		if !core.IsFinite(gainDB) {
			return
		}
		g := core.Clamp(gainDB, -graph.MaxEQGainDB, graph.MaxEQGainDB)
		switch b {
		case graph.BandLow:
			t.EQ.Low = g
		case graph.BandMid:
			t.EQ.Mid = g
		case graph.BandHigh:
			t.EQ.High = g
		default:
			return
		}
		s.engine.SetEQBand(id, b, g)
	})
}

// SetMute silences a track without moving its fader.
func (s *Studio) SetMute(id string, muted bool) error {
	return s.updateTrack(id, func(t *Track) { t.Muted = muted })
}

// SetSolo marks a track as soloed. While any track is soloed only soloed
// tracks are heard.
func (s *Studio) SetSolo(id string, solo bool) error {
	return s.updateTrack(id, func(t *Track) { t.Solo = solo })
}

// SetMasterGain sets the master bus gain.
func (s *Studio) SetMasterGain(g float64) {
	s.engine.SetMasterGain(g)
}

// ApplyMix applies m to the matching tracks. Keys match a track id first,
// then a track name ignoring case. Unknown keys, and tracks removed while the
// mix is applied, are reported together after every known key has been
// applied.
func (s *Studio) ApplyMix(m Mix) error {
	if m.Master != nil {
		s.SetMasterGain(*m.Master)
	}

	var errs []error
	for key, tm := range m.Tracks {
		id, ok := s.resolve(key)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownTrack, key))
			continue
		}
		errs = append(errs, s.applyTrackMix(id, tm))
	}
	return errors.Join(errs...)
}

// applyTrackMix sets every field present in tm on track id. A track removed
// in the meantime yields ErrUnknownTrack.
func (s *Studio) applyTrackMix(id string, tm TrackMix) error {
	var errs []error
	if tm.Volume != nil {
		errs = append(errs, s.SetVolume(id, *tm.Volume))
	}
	if tm.Pan != nil {
		errs = append(errs, s.SetPan(id, *tm.Pan))
	}
	if tm.Muted != nil {
		errs = append(errs, s.SetMute(id, *tm.Muted))
	}
	if tm.Solo != nil {
		errs = append(errs, s.SetSolo(id, *tm.Solo))
	}
	if tm.EQ != nil {
		for _, b := range []graph.Band{graph.BandLow, graph.BandMid, graph.BandHigh} {
			errs = append(errs, s.SetEQ(id, b, tm.EQ.gain(b)))
		}
	}
	return errors.Join(errs...)
}

func (s *Studio) resolve(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.find(key); t != nil {
		return t.ID, true
	}
	for _, t := range s.tracks {
		if strings.EqualFold(t.Name, key) {
			return t.ID, true
		}
	}
	return "", false
}

func (s *Studio) updateTrack(id string, fn func(*Track)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	fn(t)
	s.applyGainsLocked()
	return nil
}

// applyGainsLocked pushes the audible gain of every track to its chain.
func (s *Studio) applyGainsLocked() {
	soloed := false
	for _, t := range s.tracks {
		soloed = soloed || t.Solo
	}
	for _, t := range s.tracks {
		s.engine.SetVolume(t.ID, effectiveGain(t, soloed))
	}
}

func effectiveGain(t *Track, soloActive bool) float64 {
	if t.Muted || (soloActive && !t.Solo) {
		return 0
	}
	return t.Volume
}

func (s *Studio) find(id string) *Track {
	for _, t := range s.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Close releases the audio graph.
func (s *Studio) Close() error {
	s.Stop()
	return s.engine.Dispose()
}
