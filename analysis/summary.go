package analysis

import (
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/util"
)

// Summarize describes every track of song without decoding notes.
func Summarize(song *model.Song) []model.TrackSummary {
	res := make([]model.TrackSummary, 0, len(song.Tracks))
	for i, track := range song.Tracks {
		s := model.TrackSummary{
			Index:     i,
			Name:      model.TrackName(track),
			NumEvents: len(track),
			EndTick:   model.EndTick(track),
		}
		channels := make(map[uint8]bool)
		for _, evt := range track {
			switch evt.Kind {
			case model.TempoEvent:
				s.NumTempos++
			case model.NoteOnEvent:
				if evt.Velocity == 0 {
					continue
				}
				if s.NumNoteOns == 0 || evt.Pitch < s.LowestPitch {
					s.LowestPitch = evt.Pitch
				}
				s.HighestPitch = util.Max(s.HighestPitch, evt.Pitch)
				s.NumNoteOns++
				channels[evt.Channel] = true
			}
		}
		s.Channels = util.SortedKeys(channels)
		res = append(res, s)
	}
	return res
}
