package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-studio/remote"
	"github.com/cwbudde/algo-studio/studio"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the built-in voices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tMOOD\tLANGUAGE\tACCENT\tSERVICE VOICE")
		for _, v := range studio.BuiltInVoices() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Name, v.Mood, v.Language, v.Accent, remote.VoiceName(v.Name))
		}
		return tw.Flush()
	},
}
