package model

import (
	"encoding/json"
	"math"
)

// Trace is a price ratio series of one quote token expressed in a base token.
type Trace struct {
	Name       string    `json:"name"`
	Timestamps []int64   `json:"x"`
	Values     []float64 `json:"y"`
}

// Len returns the number of points in the trace.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Values)
}

// MarshalJSON encodes non-finite ratios as null, which plain encoding/json rejects.
func (t Trace) MarshalJSON() ([]byte, error) {
	values := make([]*float64, len(t.Values))
	for i := range t.Values {
		v := t.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = &v
	}
	return json.Marshal(struct {
		Name       string     `json:"name"`
		Timestamps []int64    `json:"x"`
		Values     []*float64 `json:"y"`
	}{
		Name:       t.Name,
		Timestamps: t.Timestamps,
		Values:     values,
	})
}

// Plot is what gets handed to a renderer.
type Plot struct {
	Title      string   `json:"title"`
	YAxisLabel string   `json:"y_axis_label"`
	Traces     []*Trace `json:"traces"`
}
