package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/studio"
)

var (
	synthVoice string
	synthMood  string
	synthOut   string
	synthPlay  bool

	synthCmd = &cobra.Command{
		Use:   "synth TEXT...",
		Short: "Synthesize speech into a voice track",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSynth,
	}
)

func init() {
	f := synthCmd.Flags()
	f.StringVar(&synthVoice, "voice", "Adam", "voice name, see 'studio voices'")
	f.StringVar(&synthMood, "mood", studio.DefaultMood, "delivery, e.g. calm or excited")
	f.StringVarP(&synthOut, "out", "o", "", "write the speech as WAV")
	f.BoolVar(&synthPlay, "play", false, "play the track after synthesis")
}

func runSynth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newRemote()
	if err != nil {
		return err
	}
	engine, err := newEngine(engineOptions{output: synthPlay})
	if err != nil {
		return err
	}
	s := studio.New(engine, studio.WithVoiceService(client), studio.WithLogger(log))
	defer s.Close()

	if _, ok := s.Voice(synthVoice); !ok {
		return fmt.Errorf("unknown voice %q", synthVoice)
	}

	track, err := s.SynthesizeTrack(ctx, strings.Join(args, " "), synthVoice, synthMood)
	if err != nil {
		return err
	}
	region := track.Regions[0]
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %q, %s\n",
		track.Name, region.Name, time.Duration(region.Duration*float64(time.Second)).Round(time.Millisecond))

	if synthOut != "" {
		wav, err := codec.EncodeWAV(region.Audio, 16)
		if err != nil {
			return err
		}
		if err := os.WriteFile(synthOut, wav, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", synthOut, humanize.Bytes(uint64(len(wav))))
	}

	if synthPlay && engine.Enabled() {
		s.Play()
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration((region.Duration + 0.25) * float64(time.Second))):
		}
	}
	return nil
}
