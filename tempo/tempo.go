// Package tempo maps tick positions to elapsed seconds.
package tempo

import (
	"sort"

	"github.com/jsphweid/mididf/constants"
	"github.com/jsphweid/mididf/model"
)

// Change is a tempo event at an absolute tick.
type Change struct {
	Tick             uint64
	MicrosPerQuarter int64
	Track            int
}

// Map holds the tempo anchors of a song. Anchors are strictly increasing in
// both tick and seconds and the first one is always tick 0.
type Map struct {
	ticksPerQuarter uint16
	anchors         []model.TempoAnchor
}

// Build integrates the given changes into a Map. Changes with a non-positive
// rate are skipped and reported; the previous rate stays active.
func Build(ticksPerQuarter uint16, changes []Change) (*Map, []error) {
	if ticksPerQuarter == 0 {
		ticksPerQuarter = constants.DefaultTicksPerQuarter
	}
	m := &Map{
		ticksPerQuarter: ticksPerQuarter,
		anchors: []model.TempoAnchor{{
			Tick:             0,
			Seconds:          0,
			MicrosPerQuarter: constants.DefaultMicrosPerQuarter,
		}},
	}

	sorted := make([]Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tick < sorted[j].Tick
	})

	var anomalies []error
	for _, c := range sorted {
		if c.MicrosPerQuarter <= 0 {
			anomalies = append(anomalies, &model.TrackError{
				Track: c.Track,
				Tick:  c.Tick,
				Err:   model.ErrMalformedTempoEvent,
			})
			continue
		}
		last := &m.anchors[len(m.anchors)-1]
		if c.Tick == last.Tick {
			last.MicrosPerQuarter = c.MicrosPerQuarter
			continue
		}
		m.anchors = append(m.anchors, model.TempoAnchor{
			Tick:             c.Tick,
			Seconds:          m.extrapolate(*last, c.Tick),
			MicrosPerQuarter: c.MicrosPerQuarter,
		})
	}
	return m, anomalies
}

// FromTrack builds a Map out of the tempo events of a single track.
func FromTrack(ticksPerQuarter uint16, track model.Track, trackIndex int) (*Map, []error) {
	return Build(ticksPerQuarter, Changes(track, trackIndex))
}

// FromSong uses the tempo track at index tempoTrack. A negative index
// collects tempo events from every track. A tempo track that is missing or
// empty is an error.
func FromSong(song *model.Song, tempoTrack int) (*Map, []error, error) {
	if tempoTrack >= 0 {
		track, err := song.Track(tempoTrack)
		if err != nil {
			return nil, nil, err
		}
		m, anomalies := FromTrack(song.TicksPerQuarter, track, tempoTrack)
		return m, anomalies, nil
	}
	var changes []Change
	for i, track := range song.Tracks {
		changes = append(changes, Changes(track, i)...)
	}
	m, anomalies := Build(song.TicksPerQuarter, changes)
	return m, anomalies, nil
}

func Changes(track model.Track, trackIndex int) []Change {
	var res []Change
	var absTicks uint64
	for _, evt := range track {
		absTicks += uint64(evt.Delta)
		if evt.Kind == model.TempoEvent {
			res = append(res, Change{
				Tick:             absTicks,
				MicrosPerQuarter: evt.MicrosPerQuarter,
				Track:            trackIndex,
			})
		}
	}
	return res
}

// Seconds converts an absolute tick to elapsed seconds.
func (m *Map) Seconds(tick uint64) float64 {
	// first anchor past tick, the one before it is active
	i := sort.Search(len(m.anchors), func(i int) bool {
		return m.anchors[i].Tick > tick
	})
	return m.extrapolate(m.anchors[i-1], tick)
}

func (m *Map) extrapolate(a model.TempoAnchor, tick uint64) float64 {
	elapsed := float64(tick-a.Tick) * float64(a.MicrosPerQuarter)
	return a.Seconds + elapsed/(float64(m.ticksPerQuarter)*1_000_000)
}

func (m *Map) Anchors() []model.TempoAnchor {
	res := make([]model.TempoAnchor, len(m.anchors))
	copy(res, m.anchors)
	return res
}
