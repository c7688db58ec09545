package cmd

import (
	"github.com/jsphweid/mididf/analysis"
	"github.com/jsphweid/mididf/midi"
	"github.com/jsphweid/mididf/tempo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(tempoCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary FILE",
	Short: "Prints one line per track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), analysis.Summarize(song))
		return nil
	},
}

var tempoCmd = &cobra.Command{
	Use:   "tempo FILE",
	Short: "Prints the tempo map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		tm, anomalies, err := tempo.FromSong(song, cfg.Analysis.TempoTrack)
		if err != nil {
			return err
		}
		for _, a := range anomalies {
			cmd.PrintErrln(a)
		}
		printTempo(cmd.OutOrStdout(), tm.Anchors())
		return nil
	},
}
