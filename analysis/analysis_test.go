package analysis

import (
	"testing"

	"github.com/jsphweid/mididf/midi"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoHandSong(t *testing.T) *model.Song {
	mf := sample.Create(480,
		[]sample.Event{sample.Name("tempo"), sample.Tempo(0, 120)},
		[]sample.Event{
			sample.Name("right"),
			sample.NoteOn(0, 0, 64, 80), sample.NoteOn(0, 0, 67, 80), sample.NoteOn(0, 0, 72, 80),
			sample.NoteOff(480, 0, 64), sample.NoteOff(480, 0, 67), sample.NoteOff(480, 0, 72),
			sample.NoteOn(480, 0, 65, 80), sample.NoteOff(960, 0, 65),
		},
		[]sample.Event{
			sample.Name("left"),
			sample.NoteOn(0, 1, 60, 80), sample.NoteOff(960, 1, 60),
			sample.NoteOn(720, 1, 53, 80), sample.NoteOff(960, 1, 53),
		},
	)
	song, err := midi.FromSMF(mf)
	require.NoError(t, err)
	return song
}

func TestAnalyzeMergesAllTracksWithNotes(t *testing.T) {
	res, err := Analyze(twoHandSong(t), DefaultOptions())
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Empty(res.Anomalies)
	require.Len(t, res.Tracks, 2)
	assert.Equal(1, res.Tracks[0].Index)
	assert.Equal("right", res.Tracks[0].Name)
	assert.Equal(2, res.Tracks[1].Index)
	assert.Equal(6, res.NumNotes())

	require.Len(t, res.Merged, 3)
	assert.Equal(0.0, res.Merged[0].Time)
	assert.Equal(model.Notes{60, 64, 67, 72}, res.Merged[0].Pitches)
	assert.Equal(0.5, res.Merged[1].Time)
	assert.Equal(model.Notes{65}, res.Merged[1].Pitches)
	assert.Equal(0.75, res.Merged[2].Time)
	assert.Equal(model.Notes{53}, res.Merged[2].Pitches)

	assert.Equal(4, res.MaxNotes)
	assert.Equal(6, res.MaxDyads)
	assert.Equal([]float64{0}, res.MaxDyadTimes)
	assert.Equal(model.IntervalHistogram{4: 1, 3: 1, 7: 1, 12: 1, 8: 1, 5: 1}, res.Intervals)
}

func TestAnalyzeSelectedTracks(t *testing.T) {
	res, err := Analyze(twoHandSong(t), Options{Tracks: []int{2}, ReduceOctaves: true})
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, res.Tracks, 1)
	assert.Equal(1, res.MaxNotes)
	assert.True(res.ReducedOctaves)
	assert.Empty(res.Intervals)
	assert.Empty(res.MaxDyadTimes)
}

func TestAnalyzeMissingTempoTrackIsError(t *testing.T) {
	_, err := Analyze(twoHandSong(t), Options{TempoTrack: 7})
	assert.ErrorIs(t, err, model.ErrEmptyTrack)

	var te *model.TrackError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 7, te.Track)
}

func TestAnalyzeEmptyTrackIsError(t *testing.T) {
	song := twoHandSong(t)
	song.Tracks = append(song.Tracks, model.Track{})

	_, err := Analyze(song, Options{Tracks: []int{1, 3}})
	assert.ErrorIs(t, err, model.ErrEmptyTrack)

	_, err = Analyze(song, Options{Tracks: []int{42}})
	var te *model.TrackError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 42, te.Track)
}

func TestAnalyzeCollectsAnomaliesPerTrack(t *testing.T) {
	song := &model.Song{
		TicksPerQuarter: 480,
		Tracks: []model.Track{
			{
				{Kind: model.TempoEvent, MicrosPerQuarter: 0},
				{Kind: model.NoteOnEvent, Pitch: 60, Velocity: 90},
				{Kind: model.NoteOffEvent, Delta: 480, Pitch: 61},
			},
			{
				{Kind: model.NoteOnEvent, Pitch: 48, Velocity: 90},
				{Kind: model.NoteOffEvent, Delta: 480, Pitch: 48},
			},
		},
	}
	res, err := Analyze(song, DefaultOptions())
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, res.Anomalies, 3)
	assert.ErrorIs(res.Anomalies[0], model.ErrMalformedTempoEvent)
	assert.ErrorIs(res.Anomalies[1], model.ErrOrphanNoteOff)
	assert.ErrorIs(res.Anomalies[2], model.ErrUnterminatedNote)

	// the second track is untouched by the first one's problems
	require.Len(t, res.Tracks, 2)
	require.Len(t, res.Tracks[1].Notes, 1)
	assert.Equal(0.5, res.Tracks[1].Notes[0].End)
	assert.Equal(model.Notes{48, 60}, res.Merged[0].Pitches)
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(twoHandSong(t))

	assert := assert.New(t)
	require.Len(t, summaries, 3)
	assert.Equal(1, summaries[0].NumTempos)
	assert.Equal(0, summaries[0].NumNoteOns)
	assert.Empty(summaries[0].Channels)

	assert.Equal("right", summaries[1].Name)
	assert.Equal(4, summaries[1].NumNoteOns)
	assert.Equal([]uint8{0}, summaries[1].Channels)
	assert.Equal(uint8(64), summaries[1].LowestPitch)
	assert.Equal(uint8(72), summaries[1].HighestPitch)
	assert.Equal(uint64(960), summaries[1].EndTick)

	assert.Equal([]uint8{1}, summaries[2].Channels)
	assert.Equal(uint8(53), summaries[2].LowestPitch)
}
