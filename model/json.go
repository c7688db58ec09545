package model

import "encoding/json"

// encoding/json turns []uint8 into base64, these keep pitches and channels
// as plain number arrays.

func numbers(v []uint8) []int {
	res := make([]int, len(v))
	for i, n := range v {
		res[i] = int(n)
	}
	return res
}

func (r ChordRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time    float64 `json:"time"`
		Pitches []int   `json:"pitches"`
	}{r.Time, numbers(r.Pitches)})
}

func (r MergedRow) MarshalJSON() ([]byte, error) {
	voices := r.Voices
	if voices == nil {
		voices = []Voice{}
	}
	return json.Marshal(struct {
		Time    float64 `json:"time"`
		Pitches []int   `json:"pitches"`
		Voices  []Voice `json:"voices"`
	}{r.Time, numbers(r.Pitches), voices})
}

func (s TrackSummary) MarshalJSON() ([]byte, error) {
	type plain TrackSummary
	return json.Marshal(struct {
		plain
		Channels []int `json:"channels"`
	}{plain(s), numbers(s.Channels)})
}
