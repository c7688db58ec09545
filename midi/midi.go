package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jsphweid/mididf/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*model.Song, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return Read(bytes.NewReader(dat))
}

// Read parses a Standard MIDI File. Anything gomidi refuses, including its
// panics, comes back as an error wrapping model.ErrFormat.
func Read(r io.Reader) (s *model.Song, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Wrap(model.ErrFormat, fmt.Sprint(r))
		}
	}()

	parsed, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrapf(model.ErrFormat, "Error parsing midi file... %s", err.Error())
	}
	return FromSMF(parsed)
}

func FromSMF(mf *smf.SMF) (*model.Song, error) {
	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.Wrapf(model.ErrFormat, "unsupported time format %v", mf.TimeFormat)
	}
	if ticks.Ticks4th() == 0 {
		return nil, errors.Wrap(model.ErrFormat, "zero ticks per quarter note")
	}

	song := &model.Song{TicksPerQuarter: uint16(ticks.Ticks4th())}
	for _, track := range mf.Tracks {
		events := make(model.Track, 0, len(track))
		for _, evt := range track {
			events = append(events, convert(evt))
		}
		song.Tracks = append(song.Tracks, events)
	}
	return song, nil
}

func convert(evt smf.Event) model.Event {
	res := model.Event{Delta: evt.Delta}

	var channel, key, velocity uint8
	var bpm float64
	var text string
	msg := evt.Message
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		res.Kind = model.NoteOnEvent
	case msg.GetNoteOff(&channel, &key, &velocity):
		res.Kind = model.NoteOffEvent
	case msg.GetMetaTempo(&bpm):
		res.Kind = model.TempoEvent
		res.MicrosPerQuarter = microsPerQuarter(bpm)
	case msg.GetMetaTrackName(&text):
		res.Kind = model.TrackNameEvent
		res.Text = text
		return res
	default:
		return res
	}
	res.Channel = channel
	res.Pitch = key
	res.Velocity = velocity
	return res
}

// gomidi only hands out BPM; the file stores microseconds per quarter.
func microsPerQuarter(bpm float64) int64 {
	if bpm <= 0 || math.IsInf(bpm, 0) || math.IsNaN(bpm) {
		return 0
	}
	return int64(math.Round(60_000_000 / bpm))
}
