package selection

import (
	"fmt"
	"strings"

	"tokenPlotter/internal/model"
)

// NewPlot labels a set of traces the way the chart shows them.
func NewPlot(base string, quotes []string, traces []*model.Trace) model.Plot {
	return model.Plot{
		Title:      fmt.Sprintf("Price history for %s (in %s)", strings.Join(quotes, ", "), base),
		YAxisLabel: fmt.Sprintf("Price (%s)", base),
		Traces:     traces,
	}
}
