package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tokenPlotter/internal/model"
	"tokenPlotter/internal/timeaxis"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case PNG, "":
		return PNG, nil
	case SVG:
		return SVG, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls image output. From and To bound the time axis when no
// trace has a finite point to draw.
type Options struct {
	Width  int
	Height int
	Format Format
	From   time.Time
	To     time.Time
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorAlternateGray,
}

// Render draws every trace of plot as a time series line chart.
// Non-finite ratios are left out of the picture, a single finite point is drawn
// as a dot, and a plot with no finite points renders an empty frame.
func Render(w io.Writer, plot model.Plot, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}

	series := make([]chart.Series, 0, len(plot.Traces))
	yMin, yMax := math.Inf(1), math.Inf(-1)
	var xMin, xMax time.Time
	for i, trace := range plot.Traces {
		xs, ys := finitePoints(trace)
		if len(xs) == 0 {
			continue
		}
		for j, y := range ys {
			yMin = math.Min(yMin, y)
			yMax = math.Max(yMax, y)
			if xMin.IsZero() || xs[j].Before(xMin) {
				xMin = xs[j]
			}
			if xs[j].After(xMax) {
				xMax = xs[j]
			}
		}

		color := palette[i%len(palette)]
		style := chart.Style{StrokeColor: color, StrokeWidth: 1.5}
		if len(xs) == 1 {
			style.DotColor = color
			style.DotWidth = 3
		}
		series = append(series, chart.TimeSeries{
			Name:    trace.Name,
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}

	visible := len(series) > 0
	if !visible {
		xMin, xMax = opts.From, opts.To
		yMin, yMax = 0, 1
	}
	xMin, xMax = timeWindow(xMin, xMax)
	if !visible {
		// go-chart refuses a chart without series.
		series = append(series, chart.TimeSeries{
			XValues: []time.Time{xMin, xMax},
			YValues: []float64{yMin, yMax},
			Style:   chart.Style{Hidden: true},
		})
	}

	ch := chart.Chart{
		Title:  plot.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(xMin), Max: chart.TimeToFloat64(xMax)},
		},
		YAxis: chart.YAxis{
			Name:  plot.YAxisLabel,
			Range: paddedRange(yMin, yMax),
		},
		Series: series,
	}
	if visible {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	provider := chart.PNG
	if opts.Format == SVG {
		provider = chart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func finitePoints(trace *model.Trace) ([]time.Time, []float64) {
	if trace == nil {
		return nil, nil
	}
	xs := make([]time.Time, 0, len(trace.Values))
	ys := make([]float64, 0, len(trace.Values))
	for i, v := range trace.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, timeaxis.UnixTime(trace.Timestamps[i]))
		ys = append(ys, v)
	}
	return xs, ys
}

// timeWindow returns a non-empty x range; a single instant is widened by an hour each side.
func timeWindow(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = timeaxis.UnixTime(0)
	}
	if !to.After(from) {
		return from.Add(-time.Hour), from.Add(time.Hour)
	}
	return from, to
}

// paddedRange widens a flat y range; go-chart rejects a zero delta.
func paddedRange(min, max float64) chart.Range {
	if max > min {
		return &chart.ContinuousRange{Min: min, Max: max}
	}
	pad := math.Abs(min) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: min - pad, Max: max + pad}
}
