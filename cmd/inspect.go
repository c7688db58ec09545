package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/store"
	"github.com/spf13/cobra"
)

var inspectRows int

func init() {
	inspectCmd.Flags().IntVar(&inspectRows, "rows", 20, "merged rows to print, 0 for all")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect ID",
	Short: "Shows a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		return inspect(cmd.Context(), cmd.OutOrStdout(), s, args[0])
	},
}

func inspect(ctx context.Context, w io.Writer, s *store.Store, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rows, err := s.Rows(ctx, id, inspectRows)
	if err != nil {
		return err
	}
	intervals, err := s.Intervals(ctx, id)
	if err != nil {
		return err
	}

	printHeading(w, fmt.Sprintf("%s (%s)", a.Filename, a.ID))
	merged := make([]model.MergedRow, 0, len(rows))
	for _, r := range rows {
		merged = append(merged, model.MergedRow{Time: r.Time, Pitches: r.Pitches})
	}
	printMerged(w, merged)
	printStats(w, a.MaxNotes, a.MaxDyads, nil, intervals)
	return nil
}
