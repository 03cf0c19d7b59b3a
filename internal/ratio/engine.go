package ratio

import (
	"context"

	"tokenPlotter/internal/model"
	"tokenPlotter/internal/series"
	"tokenPlotter/internal/timeaxis"
)

// SeriesGetter resolves a symbol to its series.
type SeriesGetter interface {
	Get(ctx context.Context, symbol string) (series.Series, error)
}

// Engine computes price ratio traces on the shared time axis.
type Engine struct {
	axis  timeaxis.Axis
	store SeriesGetter
}

func NewEngine(axis timeaxis.Axis, store SeriesGetter) *Engine {
	return &Engine{axis: axis, store: store}
}

// Compute returns the price of quote expressed in base, from the first axis index where
// both series exist to the end of the axis. A zero base price yields ±Inf or NaN.
func (e *Engine) Compute(ctx context.Context, quote, base string) (*model.Trace, error) {
	quoteSeries, err := e.store.Get(ctx, quote)
	if err != nil {
		return nil, err
	}
	baseSeries, err := e.store.Get(ctx, base)
	if err != nil {
		return nil, err
	}

	if quoteSeries.IsReference() && baseSeries.IsReference() {
		return &model.Trace{Name: quote, Timestamps: []int64{}, Values: []float64{}}, nil
	}

	start := quoteSeries.StartIndex()
	if s := baseSeries.StartIndex(); s > start {
		start = s
	}

	n := e.axis.Len()
	values := make([]float64, 0, n-start)
	for i := start; i < n; i++ {
		values = append(values, quoteSeries.At(i)/baseSeries.At(i))
	}

	return &model.Trace{
		Name:       quote,
		Timestamps: e.axis.Slice(start),
		Values:     values,
	}, nil
}
