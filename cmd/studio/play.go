package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/studio"
)

var (
	playMix    string
	playWatch  bool
	playType   string
	playMaster float64

	playCmd = &cobra.Command{
		Use:   "play FILE...",
		Short: "Mix audio files through the track chains and play them",
		Long: "Each file becomes one track. A mix file (YAML, JSON or TOML) sets\n" +
			"volume, pan, mute, solo and EQ per track name; with --watch it is\n" +
			"re-applied to the running mix whenever it changes.",
		Args: cobra.MinimumNArgs(1),
		RunE: runPlay,
	}
)

func init() {
	f := playCmd.Flags()
	f.StringVar(&playMix, "mix", "", "mix settings file")
	f.BoolVar(&playWatch, "watch", false, "reload the mix file on change")
	f.StringVar(&playType, "type", string(studio.TrackMusic), "track type for the files: VOICE, MUSIC, SFX, BEAT")
	f.Float64Var(&playMaster, "master", -1, "master gain 0..1 (default from config)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	typ, ok := studio.ParseTrackType(playType)
	if !ok {
		return fmt.Errorf("unknown track type %q", playType)
	}
	if playWatch && playMix == "" {
		return fmt.Errorf("--watch needs --mix")
	}

	engine, err := newEngine(engineOptions{output: true})
	if err != nil {
		return err
	}
	s := studio.New(engine, studio.WithLogger(log))
	defer s.Close()

	var longest float64
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		clip, err := engine.DecodePayload(ctx, codec.Payload{MIMEType: mimeFor(path), Data: data})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := s.AddTrack(typ, name, clip); err != nil {
			return err
		}
		longest = max(longest, clip.Duration().Seconds())
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s, %d ch, %s\n",
			name, humanize.Bytes(uint64(len(data))), clip.NumChannels(), clip.Duration().Round(time.Millisecond))
	}

	if playMaster >= 0 {
		s.SetMasterGain(playMaster)
	}
	if playMix != "" {
		if err := applyMixFile(s, playMix); err != nil {
			return err
		}
		if playWatch {
			if err := watchMix(ctx, s, playMix); err != nil {
				return err
			}
		}
	}

	if !engine.Enabled() {
		fmt.Fprintln(cmd.OutOrStdout(), "no audio output; nothing to play")
		return nil
	}

	s.Play()
	began := time.Now()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("playback interrupted", zap.Duration("played", time.Since(began)))
			return nil
		case <-ticker.C:
			pos := s.Position()
			peak, rms := engine.Analyser().Levels()
			log.Debug("playing",
				zap.Float64("position", pos), zap.Float64("peak", peak), zap.Float64("rms", rms))
			if pos >= longest {
				fmt.Fprintf(cmd.OutOrStdout(), "done after %s\n", strings.TrimSpace(humanize.RelTime(began, time.Now(), "", "")))
				return nil
			}
		}
	}
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return codec.MIMEWAV
	case ".mp3":
		return "audio/mpeg"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	}
	return ""
}
