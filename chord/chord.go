package chord

import (
	"fmt"
	"sort"

	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/util"
	"github.com/pkg/errors"
)

func CreateChordKey(notes model.Notes) string {
	sorted := append(model.Notes(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

// Condense groups notes that start at exactly the same second into one row.
// The same pitch struck twice at one instant counts once.
func Condense(notes []model.Note) []model.ChordRow {
	timestampToPitches := make(map[float64]map[uint8]bool)
	for _, n := range notes {
		pressed, ok := timestampToPitches[n.Start]
		if !ok {
			pressed = make(map[uint8]bool)
			timestampToPitches[n.Start] = pressed
		}
		pressed[n.Pitch] = true
	}

	res := make([]model.ChordRow, 0, len(timestampToPitches))
	for _, t := range util.SortedKeys(timestampToPitches) {
		res = append(res, model.ChordRow{
			Time:    t,
			Pitches: util.SortedKeys(timestampToPitches[t]),
		})
	}
	return res
}

// Notes turns rows back into zero-length notes, one per pitch.
func Notes(rows []model.ChordRow, track int) []model.Note {
	var res []model.Note
	for _, row := range rows {
		for _, p := range row.Pitches {
			res = append(res, model.Note{Pitch: p, Track: track, Start: row.Time, End: row.Time})
		}
	}
	return res
}

// Merge lines up the chord tables of several tracks on the union of their
// onset times. A track only contributes to the row at its own onsets; notes
// that are still sounding from an earlier onset are not carried forward.
func Merge(tables [][]model.ChordRow, trackIDs []int) ([]model.MergedRow, error) {
	if len(tables) != len(trackIDs) {
		return nil, errors.Errorf("got %d chord tables but %d track ids", len(tables), len(trackIDs))
	}

	timestampToVoices := make(map[float64]map[uint8][]int)
	for i, table := range tables {
		for _, row := range table {
			voices, ok := timestampToVoices[row.Time]
			if !ok {
				voices = make(map[uint8][]int)
				timestampToVoices[row.Time] = voices
			}
			for _, p := range row.Pitches {
				voices[p] = appendUnique(voices[p], trackIDs[i])
			}
		}
	}

	res := make([]model.MergedRow, 0, len(timestampToVoices))
	for _, t := range util.SortedKeys(timestampToVoices) {
		voices := timestampToVoices[t]
		row := model.MergedRow{Time: t}
		for _, p := range util.SortedKeys(voices) {
			tracks := voices[p]
			sort.Ints(tracks)
			row.Pitches = append(row.Pitches, p)
			row.Voices = append(row.Voices, model.Voice{Pitch: p, Tracks: tracks})
		}
		res = append(res, row)
	}
	return res, nil
}

func appendUnique(ids []int, id int) []int {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
