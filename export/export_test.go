package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jsphweid/mididf/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var merged = []model.MergedRow{
	{
		Time:    0,
		Pitches: model.Notes{48, 60},
		Voices:  []model.Voice{{Pitch: 48, Tracks: []int{2}}, {Pitch: 60, Tracks: []int{1, 2}}},
	},
	{
		Time:    1.5,
		Pitches: model.Notes{62},
		Voices:  []model.Voice{{Pitch: 62, Tracks: []int{1}}},
	},
}

func TestVisualizerJSONIsKeyedByRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVisualizerJSON(&buf, merged))

	var decoded map[string]struct {
		Time    float64 `json:"Time (s)"`
		Playing []int   `json:"Playing"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert := assert.New(t)
	assert.Len(decoded, 2)
	assert.Equal(0.0, decoded["0"].Time)
	assert.Equal([]int{48, 60}, decoded["0"].Playing)
	assert.Equal(1.5, decoded["1"].Time)
	assert.Equal([]int{62}, decoded["1"].Playing)
}

func TestMergedCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMergedCSV(&buf, merged))
	assert.Equal(t, "time_s,pitches,voices\n0,48 60,48:2 60:1/2\n1.5,62,62:1\n", buf.String())
}

func TestNotesCSV(t *testing.T) {
	var buf bytes.Buffer
	notes := []model.Note{{Pitch: 60, Channel: 1, Velocity: 90, Track: 2, StartTick: 0, EndTick: 480, Start: 0, End: 0.5}}
	require.NoError(t, WriteNotesCSV(&buf, notes))
	assert.Equal(t,
		"track,channel,pitch,velocity,start_tick,end_tick,start_s,end_s,duration_s\n2,1,60,90,0,480,0,0.5,0.5\n",
		buf.String())
}
