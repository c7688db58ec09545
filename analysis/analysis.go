// Package analysis runs the whole conversion for one song: tempo map, notes
// per track, chord tables, the merged timeline and its interval statistics.
package analysis

import (
	"github.com/jsphweid/mididf/chord"
	"github.com/jsphweid/mididf/interval"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/note"
	"github.com/jsphweid/mididf/tempo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Options struct {
	// Tracks to decode and merge. Empty means every track with notes.
	Tracks []int
	// Index of the track holding tempo events, negative to scan all tracks.
	TempoTrack int
	// Fold intervals into one octave.
	ReduceOctaves bool
}

func DefaultOptions() Options {
	return Options{TempoTrack: 0}
}

type TrackResult struct {
	Index  int              `json:"index"`
	Name   string           `json:"name"`
	Notes  []model.Note     `json:"-"`
	Chords []model.ChordRow `json:"chords"`
}

type Result struct {
	TicksPerQuarter uint16                  `json:"ticks_per_quarter"`
	Tempo           []model.TempoAnchor     `json:"tempo"`
	Tracks          []TrackResult           `json:"tracks"`
	Merged          []model.MergedRow       `json:"merged"`
	MaxNotes        int                     `json:"max_notes"`
	MaxDyads        int                     `json:"max_dyads"`
	MaxDyadTimes    []float64               `json:"max_dyad_times"`
	Intervals       model.IntervalHistogram `json:"intervals"`
	ReducedOctaves  bool                    `json:"reduced_octaves"`
	Anomalies       []error                 `json:"-"`
}

// Analyze converts song into tables. Per-event problems inside a track are
// logged and collected in Result.Anomalies; a requested track that does not
// exist or is empty aborts the analysis.
func Analyze(song *model.Song, opts Options) (*Result, error) {
	tm, anomalies, err := tempo.FromSong(song, opts.TempoTrack)
	if err != nil {
		return nil, errors.Wrap(err, "could not read tempo track")
	}

	trackIndexes := opts.Tracks
	if len(trackIndexes) == 0 {
		trackIndexes = tracksWithNotes(song)
	}

	res := &Result{
		TicksPerQuarter: song.TicksPerQuarter,
		Tempo:           tm.Anchors(),
		ReducedOctaves:  opts.ReduceOctaves,
	}

	var tables [][]model.ChordRow
	for _, i := range trackIndexes {
		track, err := song.Track(i)
		if err != nil {
			return nil, errors.Wrap(err, "could not analyze song")
		}
		notes, trackAnomalies := note.Decode(track, i, tm)
		anomalies = append(anomalies, trackAnomalies...)

		chords := chord.Condense(notes)
		tables = append(tables, chords)
		res.Tracks = append(res.Tracks, TrackResult{
			Index:  i,
			Name:   model.TrackName(track),
			Notes:  notes,
			Chords: chords,
		})
	}

	merged, err := chord.Merge(tables, trackIndexes)
	if err != nil {
		return nil, err
	}
	res.Merged = merged
	res.MaxNotes = interval.MaxNotes(merged)
	res.MaxDyads = interval.MaxDyads(merged)
	res.Intervals = interval.MaxDyadCounts(merged, opts.ReduceOctaves)
	res.MaxDyadTimes = []float64{}
	for _, i := range interval.MaxDyadRows(merged) {
		res.MaxDyadTimes = append(res.MaxDyadTimes, merged[i].Time)
	}
	res.Anomalies = anomalies

	for _, a := range anomalies {
		logAnomaly(a)
	}
	return res, nil
}

func logAnomaly(err error) {
	var te *model.TrackError
	if !errors.As(err, &te) {
		logrus.Warn(err)
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"track": te.Track,
		"tick":  te.Tick,
	})
	switch {
	case errors.Is(te, model.ErrUnterminatedNote):
		entry.WithField("key", te.Pitch).Warn("note never released, closing it at end of track")
	case errors.Is(te, model.ErrOrphanNoteOff):
		entry.WithField("key", te.Pitch).Warn("note off without note on, ignoring it")
	case errors.Is(te, model.ErrMalformedTempoEvent):
		entry.Warn("tempo event with non-positive rate, keeping previous tempo")
	default:
		entry.Warn(te.Err)
	}
}

func tracksWithNotes(song *model.Song) []int {
	var res []int
	for i, track := range song.Tracks {
		for _, evt := range track {
			if evt.Kind == model.NoteOnEvent {
				res = append(res, i)
				break
			}
		}
	}
	return res
}

// NumNotes counts decoded notes across all analyzed tracks.
func (r *Result) NumNotes() int {
	var total int
	for _, t := range r.Tracks {
		total += len(t.Notes)
	}
	return total
}
