package model

import (
	"encoding/json"
	"math"
)

// SeriesRecord is the stored price series of a single token.
// A null price marks a gap and decodes to NaN.
type SeriesRecord struct {
	StartIndex *int      `json:"start_index"`
	Prices     []float64 `json:"prices"`
}

func (r *SeriesRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartIndex *int       `json:"start_index"`
		Prices     []*float64 `json:"prices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.StartIndex = raw.StartIndex
	r.Prices = nil
	if raw.Prices != nil {
		r.Prices = make([]float64, len(raw.Prices))
		for i, p := range raw.Prices {
			if p == nil {
				r.Prices[i] = math.NaN()
				continue
			}
			r.Prices[i] = *p
		}
	}
	return nil
}
