// Package interval computes chord size and dyad statistics over a merged
// chord table.
//
// Intervals are absolute semitone differences between the two pitches of a
// dyad. Unless reduction is asked for they are not folded into one octave, so
// a C4-C5 pair counts as 12 and a C4-E5 pair as 16. With reduction an octave
// or unison folds to 0.
package interval

import (
	"github.com/jsphweid/mididf/constants"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/util"
)

type Dyad struct {
	Low  uint8
	High uint8
}

func (d Dyad) Semitones(reduce bool) int {
	diff := int(d.High) - int(d.Low)
	if reduce {
		return diff % constants.OctaveSemitones
	}
	return diff
}

// Dyads lists every unordered pair of the given distinct pitches.
func Dyads(pitches model.Notes) []Dyad {
	var res []Dyad
	for i := 0; i < len(pitches); i++ {
		for j := i + 1; j < len(pitches); j++ {
			lo, hi := pitches[i], pitches[j]
			if lo > hi {
				lo, hi = hi, lo
			}
			res = append(res, Dyad{Low: lo, High: hi})
		}
	}
	return res
}

func NumDyads(n int) int {
	return n * (n - 1) / 2
}

func MaxNotes(rows []model.MergedRow) int {
	var res int
	for _, row := range rows {
		res = util.Max(res, len(row.Pitches))
	}
	return res
}

func MaxDyads(rows []model.MergedRow) int {
	return NumDyads(MaxNotes(rows))
}

func Histogram(pitches model.Notes, reduce bool) model.IntervalHistogram {
	res := make(model.IntervalHistogram)
	for _, d := range Dyads(pitches) {
		res[d.Semitones(reduce)]++
	}
	return res
}

// MaxDyadCounts builds the interval histogram of the rows with the most
// dyads. When several rows tie, each interval gets the highest count it
// reaches in any of them.
func MaxDyadCounts(rows []model.MergedRow, reduce bool) model.IntervalHistogram {
	res := make(model.IntervalHistogram)
	for _, i := range MaxDyadRows(rows) {
		for semitones, count := range Histogram(rows[i].Pitches, reduce) {
			res[semitones] = util.Max(res[semitones], count)
		}
	}
	return res
}

// MaxDyadRows returns the indexes of the rows that reach the max dyad count.
func MaxDyadRows(rows []model.MergedRow) []int {
	var res []int
	maxNotes := MaxNotes(rows)
	if maxNotes < 2 {
		return res
	}
	for i, row := range rows {
		if len(row.Pitches) == maxNotes {
			res = append(res, i)
		}
	}
	return res
}
