package timeaxis

import (
	"fmt"
	"time"

	"tokenPlotter/internal/model"
)

// Axis is the ordered sequence of timestamps shared by every token series.
type Axis struct {
	ts []int64
}

// Build expands a schedule into explicit unix-second timestamps.
func Build(schedule model.Schedule) (Axis, error) {
	if schedule.StartTS == nil {
		return Axis{}, scheduleError("missing start_ts")
	}
	if schedule.Delta == nil {
		return Axis{}, scheduleError("missing delta")
	}
	if schedule.Offsets == nil {
		return Axis{}, scheduleError("missing ts_offsets")
	}
	if schedule.BlockDiffs != nil && len(schedule.BlockDiffs) != len(schedule.Offsets) {
		return Axis{}, scheduleError(fmt.Sprintf("block_diffs length %d != ts_offsets length %d", len(schedule.BlockDiffs), len(schedule.Offsets)))
	}

	start := *schedule.StartTS
	delta := *schedule.Delta
	ts := make([]int64, len(schedule.Offsets))
	for i, offset := range schedule.Offsets {
		ts[i] = start + int64(i)*delta + offset
	}
	return Axis{ts: ts}, nil
}

func scheduleError(reason string) error {
	return &model.DataFormatError{Resource: "schedule", Reason: reason}
}

// Len returns the number of axis positions.
func (a Axis) Len() int {
	return len(a.ts)
}

// At returns the unix timestamp at index i.
func (a Axis) At(i int) int64 {
	return a.ts[i]
}

// Time returns the timestamp at index i as UTC time.
func (a Axis) Time(i int) time.Time {
	return UnixTime(a.ts[i])
}

// UnixTime converts an axis timestamp to UTC time.
func UnixTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// Timestamps returns a copy of the axis.
func (a Axis) Timestamps() []int64 {
	out := make([]int64, len(a.ts))
	copy(out, a.ts)
	return out
}

// Slice returns a copy of timestamps in [from, Len()).
func (a Axis) Slice(from int) []int64 {
	if from >= len(a.ts) {
		return []int64{}
	}
	out := make([]int64, len(a.ts)-from)
	copy(out, a.ts[from:])
	return out
}
