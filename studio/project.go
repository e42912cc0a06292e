package studio

import (
	"strings"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/dsp/buffer"
	"github.com/cwbudde/algo-studio/graph"
)

// TrackType labels what a track carries. It has no effect on processing.
type TrackType string

const (
	TrackVoice TrackType = "VOICE"
	TrackMusic TrackType = "MUSIC"
	TrackSFX   TrackType = "SFX"
	TrackBeat  TrackType = "BEAT"
)

// ParseTrackType accepts the type names case-insensitively.
func ParseTrackType(s string) (TrackType, bool) {
	switch t := TrackType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TrackVoice, TrackMusic, TrackSFX, TrackBeat:
		return t, true
	}
	return "", false
}

const (
	// DefaultTrackVolume is the fader position of an added track.
	DefaultTrackVolume = 0.8
	// VoiceTrackVolume is the fader position of a synthesized voice track.
	VoiceTrackVolume = 0.9
	// DefaultRegionSeconds is the length of a region added without audio.
	DefaultRegionSeconds = 5.0
	// DefaultDuration is the project length in seconds.
	DefaultDuration = 60.0
	// DefaultMood is the delivery used for synthesized speech.
	DefaultMood = "Professional"
)

// EQ holds the three band gains of a track in dB.
type EQ struct {
	Low  float64 `json:"low" mapstructure:"low"`
	Mid  float64 `json:"mid" mapstructure:"mid"`
	High float64 `json:"high" mapstructure:"high"`
}

func (e EQ) gain(b graph.Band) float64 {
	switch b {
	case graph.BandLow:
		return e.Low
	case graph.BandMid:
		return e.Mid
	case graph.BandHigh:
		return e.High
	}
	return 0
}

// Region is a clip placed on a track's timeline.
type Region struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Start    float64       `json:"start"`
	Duration float64       `json:"duration"`
	Audio    *buffer.Audio `json:"-"`
}

// Track is the mixer state of one track.
type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    TrackType `json:"type"`
	Volume  float64   `json:"volume"`
	Pan     float64   `json:"pan"`
	Muted   bool      `json:"muted"`
	Solo    bool      `json:"solo"`
	EQ      EQ        `json:"eq"`
	Regions []Region  `json:"regions"`
}

func (t *Track) clone() Track {
	c := *t
	c.Regions = append([]Region(nil), t.Regions...)
	return c
}

// VoiceKind tells built-in voices from cloned ones.
type VoiceKind string

const (
	VoiceBuiltIn VoiceKind = "built-in"
	VoiceCloned  VoiceKind = "cloned"
)

// VoiceProfile describes a voice usable for synthesis.
type VoiceProfile struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Kind        VoiceKind     `json:"type"`
	Mood        string        `json:"mood,omitempty"`
	Language    string        `json:"language,omitempty"`
	Accent      string        `json:"accent,omitempty"`
	Description string        `json:"description,omitempty"`
	Sample      codec.Payload `json:"-"`
}

// BuiltInVoices returns the stock voice list.
func BuiltInVoices() []VoiceProfile {
	return []VoiceProfile{
		{ID: "v1", Name: "Adam", Kind: VoiceBuiltIn, Mood: "Neutral", Language: "English", Accent: "American"},
		{ID: "v2", Name: "Bella", Kind: VoiceBuiltIn, Mood: "Calm", Language: "English", Accent: "British"},
		{ID: "v3", Name: "Charlie", Kind: VoiceBuiltIn, Mood: "Energetic", Language: "English", Accent: "Australian"},
		{ID: "v4", Name: "Dana", Kind: VoiceBuiltIn, Mood: "Serious", Language: "German", Accent: "German"},
		{ID: "v5", Name: "Elena", Kind: VoiceBuiltIn, Mood: "Elegant", Language: "Spanish", Accent: "Castilian"},
	}
}

// TrackMix is a partial mixer update. Nil fields are left alone.
type TrackMix struct {
	Volume *float64 `json:"volume,omitempty" mapstructure:"volume"`
	Pan    *float64 `json:"pan,omitempty" mapstructure:"pan"`
	Muted  *bool    `json:"muted,omitempty" mapstructure:"muted"`
	Solo   *bool    `json:"solo,omitempty" mapstructure:"solo"`
	EQ     *EQ      `json:"eq,omitempty" mapstructure:"eq"`
}

// Mix maps track ids or names to mixer updates.
type Mix struct {
	Master *float64            `json:"master,omitempty" mapstructure:"master"`
	Tracks map[string]TrackMix `json:"tracks" mapstructure:"tracks"`
}

func regionName(text string) string {
	const maxRunes = 15
	r := []rune(strings.TrimSpace(text))
	if len(r) <= maxRunes {
		return string(r)
	}
	return string(r[:maxRunes]) + "..."
}
