package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/studio"
)

var (
	recordOut     string
	recordSeconds float64
	recordClone   string
	recordAnalyze bool

	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Record a take from the microphone",
		Long: "Records until --seconds elapse or the command is interrupted and\n" +
			"writes a 16-bit WAV file. --clone adds the take to the voice library\n" +
			"after remote analysis.",
		Args: cobra.NoArgs,
		RunE: runRecord,
	}
)

func init() {
	f := recordCmd.Flags()
	f.StringVarP(&recordOut, "out", "o", "take.wav", "output WAV file")
	f.Float64Var(&recordSeconds, "seconds", 0, "stop after this many seconds (0 waits for Ctrl-C)")
	f.StringVar(&recordClone, "clone", "", "clone the take as a voice with this name")
	f.BoolVar(&recordAnalyze, "analyze", false, "describe the speaker after recording")
}

func runRecord(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine(engineOptions{capture: true})
	if err != nil {
		return err
	}

	var opts []studio.Option
	if recordClone != "" || recordAnalyze {
		client, err := newRemote()
		if err != nil {
			return err
		}
		opts = append(opts, studio.WithVoiceService(client))
	}
	s := studio.New(engine, append(opts, studio.WithLogger(log))...)
	defer s.Close()

	if err := s.StartRecording(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "recording, press Ctrl-C to stop")

	wait := cmd.Context()
	if recordSeconds > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(wait, time.Duration(recordSeconds*float64(time.Second)))
		defer cancel()
	}
	<-wait.Done()

	take, err := s.StopRecording()
	if err != nil {
		return err
	}
	if take.Empty() {
		return fmt.Errorf("recorded nothing")
	}

	// The interrupt that ended recording also cancelled the command context.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	clip, err := engine.DecodePayload(ctx, take)
	if err != nil {
		return err
	}
	wav, err := codec.EncodeWAV(clip, 16)
	if err != nil {
		return err
	}
	if err := os.WriteFile(recordOut, wav, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %s)\n",
		recordOut, humanize.Bytes(uint64(len(wav))), clip.Duration().Round(time.Millisecond))

	if recordClone != "" {
		v, err := s.CloneVoice(ctx, recordClone, take)
		if err != nil {
			return err
		}
		log.Info("voice cloned", zap.String("id", v.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "cloned voice %q: %s\n", v.Name, v.Description)
	} else if recordAnalyze {
		desc, err := s.AnalyzeVoice(ctx, take)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), desc)
	}
	return nil
}
