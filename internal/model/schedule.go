package model

// Schedule is the compact block-time schedule that encodes the shared time axis.
type Schedule struct {
	StartTS    *int64  `json:"start_ts"`
	Delta      *int64  `json:"delta"`
	Offsets    []int64 `json:"ts_offsets"`
	BlockDiffs []int64 `json:"block_diffs,omitempty"`
}

// NewSchedule builds a Schedule with all required fields set.
func NewSchedule(startTS, delta int64, offsets []int64) Schedule {
	return Schedule{
		StartTS: &startTS,
		Delta:   &delta,
		Offsets: offsets,
	}
}
