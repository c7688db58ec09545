// Package note pairs note-on and note-off events into timed notes.
package note

import (
	"sort"

	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/tempo"
)

type voiceKey struct {
	pitch   uint8
	channel uint8
}

type openNote struct {
	tick     uint64
	velocity uint8
}

// Decode turns one track into notes. Several note-ons of the same pitch and
// channel may be open at once; a note-off always closes the oldest of them.
// Orphan note-offs are dropped and notes still open at the end are closed at
// the track's last tick. Both are reported as anomalies.
func Decode(track model.Track, trackIndex int, tm *tempo.Map) ([]model.Note, []error) {
	var notes []model.Note
	var anomalies []error
	open := make(map[voiceKey][]openNote)

	closeNote := func(k voiceKey, on openNote, endTick uint64) {
		notes = append(notes, model.Note{
			Pitch:     k.pitch,
			Channel:   k.channel,
			Velocity:  on.velocity,
			Track:     trackIndex,
			StartTick: on.tick,
			EndTick:   endTick,
			Start:     tm.Seconds(on.tick),
			End:       tm.Seconds(endTick),
		})
	}

	var absTicks uint64
	for _, evt := range track {
		absTicks += uint64(evt.Delta)
		isOff := evt.Kind == model.NoteOffEvent ||
			(evt.Kind == model.NoteOnEvent && evt.Velocity == 0)
		k := voiceKey{pitch: evt.Pitch, channel: evt.Channel}
		switch {
		case isOff:
			queue := open[k]
			if len(queue) == 0 {
				anomalies = append(anomalies, &model.TrackError{
					Track: trackIndex,
					Tick:  absTicks,
					Pitch: int(evt.Pitch),
					Err:   model.ErrOrphanNoteOff,
				})
				continue
			}
			closeNote(k, queue[0], absTicks)
			if len(queue) == 1 {
				delete(open, k)
			} else {
				open[k] = queue[1:]
			}
		case evt.Kind == model.NoteOnEvent:
			open[k] = append(open[k], openNote{tick: absTicks, velocity: evt.Velocity})
		}
	}

	// deterministic order for the leftovers
	keys := make([]voiceKey, 0, len(open))
	for k := range open {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pitch != keys[j].pitch {
			return keys[i].pitch < keys[j].pitch
		}
		return keys[i].channel < keys[j].channel
	})
	for _, k := range keys {
		for _, on := range open[k] {
			anomalies = append(anomalies, &model.TrackError{
				Track: trackIndex,
				Tick:  on.tick,
				Pitch: int(k.pitch),
				Err:   model.ErrUnterminatedNote,
			})
			closeNote(k, on, absTicks)
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.StartTick != b.StartTick {
			return a.StartTick < b.StartTick
		}
		if a.Pitch != b.Pitch {
			return a.Pitch < b.Pitch
		}
		return a.Channel < b.Channel
	})
	return notes, anomalies
}
