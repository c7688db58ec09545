// Package sample builds small in-memory MIDI files, mostly for tests.
package sample

import (
	"bytes"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Event is a message at an absolute tick.
type Event struct {
	Tick    uint32
	Message []byte
}

func NoteOn(tick uint32, channel, key, velocity uint8) Event {
	return Event{Tick: tick, Message: midi.NoteOn(channel, key, velocity)}
}

func NoteOff(tick uint32, channel, key uint8) Event {
	return Event{Tick: tick, Message: midi.NoteOff(channel, key)}
}

func Tempo(tick uint32, bpm float64) Event {
	return Event{Tick: tick, Message: smf.MetaTempo(bpm)}
}

func Name(name string) Event {
	return Event{Tick: 0, Message: smf.MetaTrackSequenceName(name)}
}

// Create assembles a format 1 file. Events of a track may come in any order;
// events at the same tick keep their given order.
func Create(ticksPerQuarter uint16, tracks ...[]Event) *smf.SMF {
	res := smf.NewSMF1()
	res.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	for _, events := range tracks {
		sorted := append([]Event(nil), events...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Tick < sorted[j].Tick
		})

		var track smf.Track
		var last uint32
		for _, evt := range sorted {
			track.Add(evt.Tick-last, evt.Message)
			last = evt.Tick
		}
		track.Close(0)
		res.Add(track)
	}
	return res
}

func Bytes(s *smf.SMF) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
