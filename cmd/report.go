package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jsphweid/mididf/store"
	"github.com/jsphweid/mididf/util"
	"github.com/spf13/cobra"
)

var reportLimit int

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "number of analyses to list, 0 for all")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Lists stored analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		analyses, err := s.List(cmd.Context(), reportLimit)
		if err != nil {
			return err
		}
		report(cmd.OutOrStdout(), analyses)
		return nil
	},
}

func report(w io.Writer, analyses []store.Analysis) {
	var rows [][]string
	var notes []int
	for _, a := range analyses {
		notes = append(notes, a.NumNotes)
		rows = append(rows, []string{
			a.ID,
			a.Filename,
			humanize.Time(a.CreatedAt),
			strconv.Itoa(a.NumTracks),
			humanize.Comma(int64(a.NumNotes)),
			strconv.Itoa(a.NumRows),
			strconv.Itoa(a.MaxNotes),
			strconv.Itoa(a.MaxDyads),
		})
	}
	printHeading(w, "Analyses")
	printTable(w, []string{"ID", "File", "Created", "Tracks", "Notes", "Rows", "Max chord", "Max dyads"},
		rows, map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true})
	fmt.Fprintf(w, "%d analyses, %s notes\n", len(analyses), humanize.Comma(int64(util.Sum(notes))))
}
