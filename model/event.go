package model

import (
	"fmt"

	"github.com/pkg/errors"
)

type EventKind uint8

const (
	OtherEvent EventKind = iota
	NoteOnEvent
	NoteOffEvent
	TempoEvent
	TrackNameEvent
)

func (k EventKind) String() string {
	switch k {
	case NoteOnEvent:
		return "note-on"
	case NoteOffEvent:
		return "note-off"
	case TempoEvent:
		return "tempo"
	case TrackNameEvent:
		return "track-name"
	}
	return "other"
}

// Event is one decoded item of a track. Delta is relative to the previous
// event of the same track.
type Event struct {
	Kind     EventKind
	Delta    uint32
	Channel  uint8
	Pitch    uint8
	Velocity uint8

	// only set for TempoEvent
	MicrosPerQuarter int64

	// only set for TrackNameEvent
	Text string
}

type Track = []Event

type Song struct {
	TicksPerQuarter uint16
	Tracks          []Track
}

// Track returns the events of track i. Asking for a track that does not
// exist or has no events is an error, not an empty table.
func (s *Song) Track(i int) (Track, error) {
	if i < 0 || i >= len(s.Tracks) || len(s.Tracks[i]) == 0 {
		return nil, &TrackError{Track: i, Err: ErrEmptyTrack}
	}
	return s.Tracks[i], nil
}

// EndTick is the absolute tick of the last event in the track.
func EndTick(t Track) uint64 {
	var abs uint64
	for _, evt := range t {
		abs += uint64(evt.Delta)
	}
	return abs
}

func TrackName(t Track) string {
	for _, evt := range t {
		if evt.Kind == TrackNameEvent {
			return evt.Text
		}
	}
	return ""
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOnEvent, NoteOffEvent:
		return fmt.Sprintf("%v +%d ch=%d key=%d vel=%d", e.Kind, e.Delta, e.Channel, e.Pitch, e.Velocity)
	case TempoEvent:
		return fmt.Sprintf("%v +%d %dus", e.Kind, e.Delta, e.MicrosPerQuarter)
	}
	return fmt.Sprintf("%v +%d", e.Kind, e.Delta)
}

var (
	ErrMalformedTempoEvent = errors.New("malformed tempo event")
	ErrUnterminatedNote    = errors.New("unterminated note")
	ErrOrphanNoteOff       = errors.New("orphan note off")
	ErrFormat              = errors.New("malformed midi source")
	ErrEmptyTrack          = errors.New("track has no events")
)

// TrackError locates an error inside a song. Tick is the absolute tick of
// the offending event, or 0 when the error concerns the whole track.
type TrackError struct {
	Track int
	Tick  uint64
	Pitch int
	Err   error
}

func (e *TrackError) Error() string {
	if errors.Is(e.Err, ErrUnterminatedNote) || errors.Is(e.Err, ErrOrphanNoteOff) {
		return fmt.Sprintf("track %d, tick %d, key %d: %v", e.Track, e.Tick, e.Pitch, e.Err)
	}
	return fmt.Sprintf("track %d, tick %d: %v", e.Track, e.Tick, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}
