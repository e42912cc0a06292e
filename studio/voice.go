package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
)

// Voices returns the built-in and cloned voices.
func (s *Studio) Voices() []VoiceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VoiceProfile(nil), s.voices...)
}

// Voice looks a voice up by id or name.
func (s *Studio) Voice(key string) (VoiceProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		if v.ID == key || strings.EqualFold(v.Name, key) {
			return v, true
		}
	}
	return VoiceProfile{}, false
}

// SynthesizeTrack speaks text with the named voice and adds the result as
// a voice track at the playhead. An empty mood uses DefaultMood. When any
// step fails no track is added.
func (s *Studio) SynthesizeTrack(ctx context.Context, text, voice, mood string) (Track, error) {
	if s.service == nil {
		return Track{}, ErrNoVoiceService
	}
	if strings.TrimSpace(text) == "" {
		return Track{}, ErrEmptyText
	}
	if mood == "" {
		mood = DefaultMood
	}

	payload, err := s.service.Synthesize(ctx, text, voice, mood)
	if err != nil {
		return Track{}, fmt.Errorf("studio: synthesize: %w", err)
	}
	clip, err := s.engine.DecodePayload(ctx, payload)
	if err != nil {
		return Track{}, fmt.Errorf("studio: decode speech: %w", err)
	}

	t := s.addTrack(TrackVoice, voice+" Content", VoiceTrackVolume, regionName(text), clip)
	s.log.Info("voice track synthesized",
		zap.String("track", t.ID), zap.String("voice", voice), zap.Duration("length", clip.Duration()))
	return t, nil
}

// StartRecording opens the microphone.
func (s *Studio) StartRecording(ctx context.Context) error {
	return s.engine.StartCapture(ctx)
}

// StopRecording finishes the take.
func (s *Studio) StopRecording() (codec.Payload, error) {
	return s.engine.StopCapture()
}

// AbortRecording discards the take.
func (s *Studio) AbortRecording() {
	s.engine.AbortCapture()
}

// AnalyzeVoice describes the speaker in a take.
func (s *Studio) AnalyzeVoice(ctx context.Context, take codec.Payload) (string, error) {
	if s.service == nil {
		return "", ErrNoVoiceService
	}
	desc, err := s.service.Analyze(ctx, s.upload(ctx, take))
	if err != nil {
		return "", fmt.Errorf("studio: analyze voice: %w", err)
	}
	return desc, nil
}

// CleanVoice returns a cleaned copy of a take.
func (s *Studio) CleanVoice(ctx context.Context, take codec.Payload) (codec.Payload, error) {
	if s.service == nil {
		return codec.Payload{}, ErrNoVoiceService
	}
	out, err := s.service.Clean(ctx, take)
	if err != nil {
		return codec.Payload{}, fmt.Errorf("studio: clean voice: %w", err)
	}
	return out, nil
}

// CloneVoice analyses and cleans a take and adds it to the voice library
// under name.
func (s *Studio) CloneVoice(ctx context.Context, name string, take codec.Payload) (VoiceProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return VoiceProfile{}, ErrEmptyName
	}
	if take.Empty() {
		return VoiceProfile{}, fmt.Errorf("studio: clone voice: %w", codec.ErrEmpty)
	}

	desc, err := s.AnalyzeVoice(ctx, take)
	if err != nil {
		return VoiceProfile{}, err
	}
	cleaned, err := s.CleanVoice(ctx, take)
	if err != nil {
		return VoiceProfile{}, err
	}

	v := VoiceProfile{
		ID:          s.newID(),
		Name:        name,
		Kind:        VoiceCloned,
		Language:    "English",
		Accent:      "Neutral",
		Description: desc,
		Sample:      cleaned,
	}
	s.mu.Lock()
	s.voices = append(s.voices, v)
	s.mu.Unlock()

	s.log.Info("voice cloned", zap.String("voice", v.ID), zap.String("name", name))
	return v, nil
}

// upload converts a take to 16-bit WAV when it can be decoded locally.
// Formats only the remote side understands are sent as they are.
func (s *Studio) upload(ctx context.Context, take codec.Payload) codec.Payload {
	a, err := s.engine.DecodePayload(ctx, take)
	if err != nil {
		if !errors.Is(err, codec.ErrUnsupportedFormat) {
			s.log.Warn("take not decodable, sending as recorded", zap.Error(err))
		}
		return take
	}
	data, err := codec.EncodeWAV(a, 16)
	if err != nil {
		s.log.Warn("wav encode failed, sending as recorded", zap.Error(err))
		return take
	}
	return codec.Payload{MIMEType: codec.MIMEWAV, Data: data}
}
