package model

import "sort"

type Notes = []uint8

// Note is a matched note-on/note-off pair. Start and End are seconds.
type Note struct {
	Pitch     uint8
	Channel   uint8
	Velocity  uint8
	Track     int
	StartTick uint64
	EndTick   uint64
	Start     float64
	End       float64
}

func (n Note) Duration() float64 {
	return n.End - n.Start
}

type ChordRow struct {
	Time    float64 `json:"time"`
	Pitches Notes   `json:"pitches"`
}

// Voice tags a pitch of a merged row with the tracks that played it.
type Voice struct {
	Pitch  uint8 `json:"pitch"`
	Tracks []int `json:"tracks"`
}

type MergedRow struct {
	Time    float64 `json:"time"`
	Pitches Notes   `json:"pitches"`
	Voices  []Voice `json:"voices"`
}

type TempoAnchor struct {
	Tick             uint64  `json:"tick"`
	Seconds          float64 `json:"seconds"`
	MicrosPerQuarter int64   `json:"micros_per_quarter"`
}

func (a TempoAnchor) BPM() float64 {
	return 60_000_000 / float64(a.MicrosPerQuarter)
}

type IntervalHistogram = map[int]int

type IntervalCount struct {
	Semitones int `json:"semitones"`
	Count     int `json:"count"`
}

func SortedIntervals(h IntervalHistogram) []IntervalCount {
	res := make([]IntervalCount, 0, len(h))
	for k, v := range h {
		res = append(res, IntervalCount{Semitones: k, Count: v})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Semitones < res[j].Semitones
	})
	return res
}

type TrackSummary struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	NumEvents    int     `json:"num_events"`
	NumNoteOns   int     `json:"num_note_ons"`
	NumTempos    int     `json:"num_tempos"`
	Channels     []uint8 `json:"channels"`
	LowestPitch  uint8   `json:"lowest_pitch"`
	HighestPitch uint8   `json:"highest_pitch"`
	EndTick      uint64  `json:"end_tick"`
}

type MidiMetadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Release string `json:"release"`
	Year    uint   `json:"year"`
}
