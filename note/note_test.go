package note

import (
	"testing"

	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/tempo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTempo() *tempo.Map {
	m, _ := tempo.Build(480, []tempo.Change{{Tick: 0, MicrosPerQuarter: 500000}})
	return m
}

func on(delta uint32, key uint8) model.Event {
	return model.Event{Kind: model.NoteOnEvent, Delta: delta, Pitch: key, Velocity: 100}
}

func off(delta uint32, key uint8) model.Event {
	return model.Event{Kind: model.NoteOffEvent, Delta: delta, Pitch: key}
}

func TestDecodesSingleNote(t *testing.T) {
	notes, anomalies := Decode(model.Track{on(0, 60), off(480, 60)}, 1, defaultTempo())

	assert := assert.New(t)
	assert.Empty(anomalies)
	require.Len(t, notes, 1)
	assert.Equal(uint8(60), notes[0].Pitch)
	assert.Equal(0.0, notes[0].Start)
	assert.Equal(0.5, notes[0].End)
	assert.Equal(1, notes[0].Track)
	assert.Equal(uint8(100), notes[0].Velocity)
}

func TestVelocityZeroNoteOnEndsNote(t *testing.T) {
	zero := model.Event{Kind: model.NoteOnEvent, Delta: 240, Pitch: 64, Velocity: 0}
	notes, anomalies := Decode(model.Track{on(0, 64), zero}, 0, defaultTempo())

	assert := assert.New(t)
	assert.Empty(anomalies)
	require.Len(t, notes, 1)
	assert.Equal(0.25, notes[0].End)
}

func TestOverlappingNotesCloseFirstInFirstOut(t *testing.T) {
	track := model.Track{on(0, 60), on(240, 60), off(240, 60), off(240, 60)}
	notes, anomalies := Decode(track, 0, defaultTempo())

	assert := assert.New(t)
	assert.Empty(anomalies)
	require.Len(t, notes, 2)
	assert.Equal(uint64(0), notes[0].StartTick)
	assert.Equal(uint64(480), notes[0].EndTick)
	assert.Equal(uint64(240), notes[1].StartTick)
	assert.Equal(uint64(720), notes[1].EndTick)
}

func TestSamePitchOnOtherChannelIsSeparate(t *testing.T) {
	other := on(0, 60)
	other.Channel = 9
	otherOff := off(480, 60)
	otherOff.Channel = 9
	track := model.Track{on(0, 60), other, off(240, 60), otherOff}
	notes, anomalies := Decode(track, 0, defaultTempo())

	assert := assert.New(t)
	assert.Empty(anomalies)
	require.Len(t, notes, 2)
	assert.Equal(uint8(0), notes[0].Channel)
	assert.Equal(0.25, notes[0].End)
	assert.Equal(uint8(9), notes[1].Channel)
	assert.Equal(0.75, notes[1].End)
}

func TestOrphanNoteOffIsIgnored(t *testing.T) {
	notes, anomalies := Decode(model.Track{off(120, 61), on(0, 60), off(480, 60)}, 3, defaultTempo())

	assert := assert.New(t)
	require.Len(t, notes, 1)
	require.Len(t, anomalies, 1)
	assert.ErrorIs(anomalies[0], model.ErrOrphanNoteOff)
	var te *model.TrackError
	require.ErrorAs(t, anomalies[0], &te)
	assert.Equal(3, te.Track)
	assert.Equal(uint64(120), te.Tick)
	assert.Equal(61, te.Pitch)
}

func TestUnterminatedNoteClosesAtTrackEnd(t *testing.T) {
	eot := model.Event{Kind: model.OtherEvent, Delta: 480}
	notes, anomalies := Decode(model.Track{on(0, 67), on(480, 60), off(480, 60), eot}, 0, defaultTempo())

	assert := assert.New(t)
	require.Len(t, anomalies, 1)
	assert.ErrorIs(anomalies[0], model.ErrUnterminatedNote)
	require.Len(t, notes, 2)
	assert.Equal(uint8(67), notes[0].Pitch)
	assert.Equal(uint64(1440), notes[0].EndTick)
	assert.Equal(1.5, notes[0].End)
}

func TestNotesAreOrderedByStart(t *testing.T) {
	track := model.Track{on(0, 72), on(0, 60), off(480, 72), on(0, 64), off(0, 60), off(240, 64)}
	notes, _ := Decode(track, 0, defaultTempo())

	assert := assert.New(t)
	require.Len(t, notes, 3)
	assert.Equal(uint8(60), notes[0].Pitch)
	assert.Equal(uint8(72), notes[1].Pitch)
	assert.Equal(uint8(64), notes[2].Pitch)
	for _, n := range notes {
		assert.LessOrEqual(n.Start, n.End)
	}
}
