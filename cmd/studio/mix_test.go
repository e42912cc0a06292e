package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/graph"
	"github.com/cwbudde/algo-studio/studio"
)

const mixYAML = `master: 0.7
tracks:
  Intro:
    volume: 0.5
    pan: -0.25
    eq:
      low: 3
      mid: 0
      high: -2
  Bed:
    muted: true
`

func TestLoadMix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mixYAML), 0o600))

	m, err := loadMix(path)
	require.NoError(t, err)
	require.NotNil(t, m.Master)
	assert.Equal(t, 0.7, *m.Master)
	require.Contains(t, m.Tracks, "intro")
	intro := m.Tracks["intro"]
	require.NotNil(t, intro.Volume)
	assert.Equal(t, 0.5, *intro.Volume)
	require.NotNil(t, intro.EQ)
	assert.Equal(t, studio.EQ{Low: 3, High: -2}, *intro.EQ)
	assert.Nil(t, intro.Solo)
	require.NotNil(t, m.Tracks["bed"].Muted)
	assert.True(t, *m.Tracks["bed"].Muted)
}

func TestApplyMixFileMatchesNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mixYAML), 0o600))

	engine, err := graph.New()
	require.NoError(t, err)
	s := studio.New(engine)
	defer s.Close()
	intro, _ := s.AddTrack(studio.TrackVoice, "Intro", nil)
	bed, _ := s.AddTrack(studio.TrackMusic, "Bed", nil)

	require.NoError(t, applyMixFile(s, path))
	got, _ := s.Track(intro.ID)
	assert.Equal(t, 0.5, got.Volume)
	assert.Equal(t, -0.25, got.Pan)
	got, _ = s.Track(bed.ID)
	assert.True(t, got.Muted)
	assert.Equal(t, 0.7, engine.MasterGain())
}

func TestLoadMixMissingFile(t *testing.T) {
	_, err := loadMix(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestMimeFor(t *testing.T) {
	assert.Equal(t, codec.MIMEWAV, mimeFor("a/B.WAV"))
	assert.Equal(t, "audio/mpeg", mimeFor("x.mp3"))
	assert.Equal(t, "", mimeFor("x.raw"))
}
