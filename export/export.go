package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/jsphweid/mididf/model"
	"github.com/pkg/errors"
)

type playingRow struct {
	Time    float64 `json:"Time (s)"`
	Playing []int   `json:"Playing"`
}

// WriteVisualizerJSON writes the merged table keyed by row number, the shape
// the dyad visualizer loads.
func WriteVisualizerJSON(w io.Writer, rows []model.MergedRow) error {
	out := make(map[string]playingRow, len(rows))
	for i, row := range rows {
		playing := make([]int, len(row.Pitches))
		for j, p := range row.Pitches {
			playing[j] = int(p)
		}
		out[strconv.Itoa(i)] = playingRow{Time: row.Time, Playing: playing}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "could not encode merged rows")
}

func joinPitches(pitches model.Notes) string {
	parts := make([]string, len(pitches))
	for i, p := range pitches {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, " ")
}

func joinTracks(voices []model.Voice) string {
	parts := make([]string, len(voices))
	for i, v := range voices {
		ids := make([]string, len(v.Tracks))
		for j, t := range v.Tracks {
			ids[j] = strconv.Itoa(t)
		}
		parts[i] = strconv.Itoa(int(v.Pitch)) + ":" + strings.Join(ids, "/")
	}
	return strings.Join(parts, " ")
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func WriteMergedCSV(w io.Writer, rows []model.MergedRow) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"time_s", "pitches", "voices"}}
	for _, row := range rows {
		records = append(records, []string{
			formatSeconds(row.Time),
			joinPitches(row.Pitches),
			joinTracks(row.Voices),
		})
	}
	return errors.Wrap(cw.WriteAll(records), "could not write merged csv")
}

func WriteNotesCSV(w io.Writer, notes []model.Note) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"track", "channel", "pitch", "velocity", "start_tick", "end_tick", "start_s", "end_s", "duration_s"}}
	for _, n := range notes {
		records = append(records, []string{
			strconv.Itoa(n.Track),
			strconv.Itoa(int(n.Channel)),
			strconv.Itoa(int(n.Pitch)),
			strconv.Itoa(int(n.Velocity)),
			strconv.FormatUint(n.StartTick, 10),
			strconv.FormatUint(n.EndTick, 10),
			formatSeconds(n.Start),
			formatSeconds(n.End),
			formatSeconds(n.Duration()),
		})
	}
	return errors.Wrap(cw.WriteAll(records), "could not write notes csv")
}
