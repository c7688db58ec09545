package interval

import (
	"testing"

	"github.com/jsphweid/mididf/model"
	"github.com/stretchr/testify/assert"
)

func rows(chords ...model.Notes) []model.MergedRow {
	var res []model.MergedRow
	for i, c := range chords {
		res = append(res, model.MergedRow{Time: float64(i), Pitches: c})
	}
	return res
}

func TestMaxChordStatistics(t *testing.T) {
	merged := rows(model.Notes{60}, model.Notes{60, 64, 67, 72}, model.Notes{62, 65})

	assert := assert.New(t)
	assert.Equal(4, MaxNotes(merged))
	assert.Equal(6, MaxDyads(merged))
	assert.Equal(model.IntervalHistogram{4: 1, 3: 1, 7: 1, 12: 1, 8: 1, 5: 1}, MaxDyadCounts(merged, false))
}

func TestReducedHistogramFoldsOctaves(t *testing.T) {
	h := Histogram(model.Notes{60, 64, 67, 72}, true)
	assert.Equal(t, model.IntervalHistogram{4: 1, 3: 1, 7: 1, 0: 1, 8: 1, 5: 1}, h)

	wide := Histogram(model.Notes{48, 64}, true)
	assert.Equal(t, model.IntervalHistogram{4: 1}, wide)
}

func TestTiedRowsTakeHighestCountPerInterval(t *testing.T) {
	// major triad: 4, 3, 7; augmented triad: 4, 4, 8
	merged := rows(model.Notes{60, 64, 67}, model.Notes{60, 64, 68})

	assert.Equal(t, model.IntervalHistogram{3: 1, 4: 2, 7: 1, 8: 1}, MaxDyadCounts(merged, false))
	assert.Equal(t, []int{0, 1}, MaxDyadRows(merged))
}

func TestNoDyads(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, MaxNotes(nil))
	assert.Equal(0, MaxDyads(nil))
	assert.Empty(MaxDyadCounts(nil, false))

	single := rows(model.Notes{60}, model.Notes{61})
	assert.Equal(1, MaxNotes(single))
	assert.Equal(0, MaxDyads(single))
	assert.Empty(MaxDyadCounts(single, false))
	assert.Empty(MaxDyadRows(single))
}

func TestDyadsAreUnordered(t *testing.T) {
	assert.Equal(t, []Dyad{{Low: 60, High: 67}, {Low: 55, High: 67}, {Low: 55, High: 60}}, Dyads(model.Notes{67, 60, 55}))
}
