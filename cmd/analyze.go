package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jsphweid/mididf/analysis"
	"github.com/jsphweid/mididf/db"
	"github.com/jsphweid/mididf/export"
	"github.com/jsphweid/mididf/file"
	"github.com/jsphweid/mididf/midi"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	analyzeTracks     []int
	analyzeTempoTrack int
	analyzeReduce     bool
	analyzeRows       int
	analyzeJSON       string
	analyzeCSV        string
	analyzeNotesCSV   string
	analyzeSave       bool
	analyzeMetadata   bool
)

func init() {
	f := analyzeCmd.Flags()
	f.IntSliceVar(&analyzeTracks, "tracks", nil, "track indexes to merge (default: every track with notes)")
	f.IntVar(&analyzeTempoTrack, "tempo-track", 0, "track holding tempo events, -1 to scan all tracks")
	f.BoolVar(&analyzeReduce, "reduce", false, "fold intervals into one octave")
	f.IntVar(&analyzeRows, "rows", 10, "sample rows to print per table, 0 for all")
	f.StringVar(&analyzeJSON, "json", "", "write the merged table as visualizer JSON")
	f.StringVar(&analyzeCSV, "csv", "", "write the merged table as CSV")
	f.StringVar(&analyzeNotesCSV, "notes-csv", "", "write every decoded note as CSV")
	f.BoolVar(&analyzeSave, "save", false, "store the result in the database")
	f.BoolVar(&analyzeMetadata, "metadata", false, "look up title and artist in DynamoDB")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Converts a midi file into note and chord tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := analysisOptions(cmd)
		return analyze(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
	},
}

func analysisOptions(cmd *cobra.Command) analysis.Options {
	opts := analysis.Options{
		Tracks:        analyzeTracks,
		TempoTrack:    cfg.Analysis.TempoTrack,
		ReduceOctaves: cfg.Analysis.ReduceOctaves,
	}
	if cmd.Flags().Changed("tempo-track") {
		opts.TempoTrack = analyzeTempoTrack
	}
	if cmd.Flags().Changed("reduce") {
		opts.ReduceOctaves = analyzeReduce
	}
	return opts
}

func analyze(ctx context.Context, w io.Writer, path string, opts analysis.Options) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	song, err := midi.ReadMidiFile(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	res, err := analysis.Analyze(song, opts)
	if err != nil {
		return errors.Wrap(err, path)
	}

	printHeading(w, fmt.Sprintf("%s (%s, %d ticks per quarter)", filepath.Base(path), humanize.Bytes(uint64(info.Size())), song.TicksPerQuarter))
	if analyzeMetadata && cfg.Metadata.Enabled() {
		printMetadata(w, path)
	}
	printSummary(w, analysis.Summarize(song))
	printTempo(w, head(res.Tempo, analyzeRows))

	for _, t := range res.Tracks {
		printHeading(w, fmt.Sprintf("Track %d %s: %s notes, %s chords", t.Index, t.Name,
			humanize.Comma(int64(len(t.Notes))), humanize.Comma(int64(len(t.Chords)))))
		var rows [][]string
		for _, c := range head(t.Chords, analyzeRows) {
			rows = append(rows, []string{seconds(c.Time), pitchList(c.Pitches)})
		}
		printTable(w, []string{"Time (s)", "Pitches"}, rows, map[int]bool{0: true})
	}

	printMerged(w, head(res.Merged, analyzeRows))
	printStats(w, res.MaxNotes, res.MaxDyads, res.MaxDyadTimes, res.Intervals)
	if len(res.Anomalies) > 0 {
		fmt.Fprintf(w, "%d anomalies recovered, see log\n", len(res.Anomalies))
	}

	if err := writeExports(res); err != nil {
		return err
	}
	if analyzeSave {
		s, err := store.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		saved, err := s.Save(ctx, filepath.Base(path), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved analysis %s\n", saved.ID)
	}
	return nil
}

func printMetadata(w io.Writer, path string) {
	client, err := db.NewMetadataClient(cfg.Metadata)
	if err != nil {
		logrus.WithError(err).Warn("metadata lookup disabled")
		return
	}
	key := file.MetadataKey(cfg.Storage.MediaDir, path)
	metadatas, err := client.GetMidiMetadatas([]string{key})
	if err != nil {
		logrus.WithError(err).Warn("metadata lookup failed")
		return
	}
	if m, ok := metadatas[key]; ok {
		fmt.Fprintf(w, "%s - %s (%s, %d)\n", m.Artist, m.Title, m.Release, m.Year)
	}
}

func printSummary(w io.Writer, summaries []model.TrackSummary) {
	printHeading(w, "Tracks")
	var rows [][]string
	for _, s := range summaries {
		var pitchRange string
		if s.NumNoteOns > 0 {
			pitchRange = fmt.Sprintf("%d-%d", s.LowestPitch, s.HighestPitch)
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Name,
			strconv.Itoa(s.NumEvents),
			strconv.Itoa(s.NumNoteOns),
			strconv.Itoa(s.NumTempos),
			fmt.Sprint(s.Channels),
			pitchRange,
			strconv.FormatUint(s.EndTick, 10),
		})
	}
	printTable(w, []string{"Track", "Name", "Events", "Notes", "Tempos", "Channels", "Range", "End tick"},
		rows, map[int]bool{0: true, 2: true, 3: true, 4: true, 7: true})
}

func printTempo(w io.Writer, anchors []model.TempoAnchor) {
	printHeading(w, "Tempo map")
	var rows [][]string
	for _, a := range anchors {
		rows = append(rows, []string{
			strconv.FormatUint(a.Tick, 10),
			seconds(a.Seconds),
			strconv.FormatInt(a.MicrosPerQuarter, 10),
			strconv.FormatFloat(a.BPM(), 'f', 2, 64),
		})
	}
	printTable(w, []string{"Tick", "Time (s)", "us/quarter", "BPM"}, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})
}

func printMerged(w io.Writer, merged []model.MergedRow) {
	printHeading(w, "Merged")
	var rows [][]string
	for _, m := range merged {
		var voices string
		for i, v := range m.Voices {
			if i > 0 {
				voices += " "
			}
			voices += fmt.Sprintf("%d%v", v.Pitch, v.Tracks)
		}
		rows = append(rows, []string{seconds(m.Time), pitchList(m.Pitches), voices})
	}
	printTable(w, []string{"Time (s)", "Pitches", "Tracks"}, rows, map[int]bool{0: true})
}

func printStats(w io.Writer, maxNotes, maxDyads int, times []float64, intervals model.IntervalHistogram) {
	printHeading(w, "Intervals")
	fmt.Fprintln(w, "Maximum chord size:", maxNotes)
	fmt.Fprintln(w, "Dyads in maximum chord:", maxDyads)
	if len(times) > 0 {
		at := make([]string, len(times))
		for i, t := range times {
			at[i] = seconds(t)
		}
		fmt.Fprintln(w, "Maximum chord at (s):", strings.Join(at, " "))
	}
	var rows [][]string
	for _, ic := range model.SortedIntervals(intervals) {
		rows = append(rows, []string{strconv.Itoa(ic.Semitones), strconv.Itoa(ic.Count)})
	}
	printTable(w, []string{"Semitones", "Count"}, rows, map[int]bool{0: true, 1: true})
}

func writeExports(res *analysis.Result) error {
	if analyzeJSON != "" {
		if err := writeFile(analyzeJSON, func(w io.Writer) error {
			return export.WriteVisualizerJSON(w, res.Merged)
		}); err != nil {
			return err
		}
	}
	if analyzeCSV != "" {
		if err := writeFile(analyzeCSV, func(w io.Writer) error {
			return export.WriteMergedCSV(w, res.Merged)
		}); err != nil {
			return err
		}
	}
	if analyzeNotesCSV != "" {
		var notes []model.Note
		for _, t := range res.Tracks {
			notes = append(notes, t.Notes...)
		}
		return writeFile(analyzeNotesCSV, func(w io.Writer) error {
			return export.WriteNotesCSV(w, notes)
		})
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
