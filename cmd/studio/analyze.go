package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/studio"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Describe the speaker in a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemote()
		if err != nil {
			return err
		}
		engine, err := newEngine(engineOptions{})
		if err != nil {
			return err
		}
		s := studio.New(engine, studio.WithVoiceService(client), studio.WithLogger(log))
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		desc, err := s.AnalyzeVoice(cmd.Context(), codec.Payload{MIMEType: mimeFor(args[0]), Data: data})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), desc)
		return nil
	},
}
