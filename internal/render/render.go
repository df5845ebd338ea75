// Package render draws chart figures as SVG or PNG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/rpggio/easybi/internal/domain/chart"
)

var (
	// ErrEmptyFigure indicates a figure with nothing to draw.
	ErrEmptyFigure = errors.New("figure has no data")
	// ErrUnknownFormat indicates an image format other than svg or png.
	ErrUnknownFormat = errors.New("unknown image format")
)

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat parses an image format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

// Renderer draws figures at a fixed size.
type Renderer struct {
	Width  int
	Height int
}

// New returns a renderer with the default canvas size.
func New() *Renderer {
	return &Renderer{Width: 960, Height: 540}
}

// Render writes the figure to w.
func (r *Renderer) Render(w io.Writer, fig *chart.Figure, format Format) error {
	if fig.Empty() {
		return ErrEmptyFigure
	}
	var err error
	switch fig.Type {
	case chart.Histogram:
		err = r.bars(fig).Render(format.provider(), w)
	case chart.Pie:
		var pie *gochart.PieChart
		pie, err = r.pie(fig)
		if err == nil {
			err = pie.Render(format.provider(), w)
		}
	case chart.Scatter, chart.Line:
		err = r.xy(fig).Render(format.provider(), w)
	default:
		return fmt.Errorf("%w: %s", chart.ErrInvalidGraphType, fig.Type)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", fig.Type, err)
	}
	return nil
}

func (r *Renderer) bars(fig *chart.Figure) *gochart.BarChart {
	values := make([]gochart.Value, 0, len(fig.Bars))
	for _, b := range fig.Bars {
		values = append(values, gochart.Value{Label: b.Label, Value: b.Value})
	}

	barWidth := 50
	width := r.Width
	if need := len(values)*(barWidth+20) + 120; need > width {
		width = need
	}
	return &gochart.BarChart{
		Title:      fig.Title,
		Width:      width,
		Height:     r.Height,
		BarWidth:   barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.Style{},
		YAxis:      gochart.YAxis{Name: fig.YLabel, Range: zeroBased(values)},
		Bars:       values,
	}
}

func (r *Renderer) pie(fig *chart.Figure) (*gochart.PieChart, error) {
	values := make([]gochart.Value, 0, len(fig.Slices))
	for _, s := range fig.Slices {
		if s.Value > 0 {
			values = append(values, gochart.Value{Label: s.Label, Value: s.Value})
		}
	}
	if len(values) == 0 {
		return nil, ErrEmptyFigure
	}
	return &gochart.PieChart{
		Title:  fig.Title,
		Width:  r.Height,
		Height: r.Height,
		Values: values,
	}, nil
}

func (r *Renderer) xy(fig *chart.Figure) *gochart.Chart {
	style := gochart.Style{StrokeWidth: 2, StrokeColor: gochart.ColorBlue}
	if fig.Type == chart.Scatter {
		style = gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 4, DotColor: gochart.ColorBlue}
	}

	xs := make([]float64, 0, len(fig.Points))
	ys := make([]float64, 0, len(fig.Points))
	for _, p := range fig.Points {
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}

	c := &gochart.Chart{
		Title:      fig.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: fig.XLabel},
		YAxis:      gochart.YAxis{Name: fig.YLabel},
	}
	if rng := padded(xs); rng != nil {
		c.XAxis.Range = rng
	}
	if rng := padded(ys); rng != nil {
		c.YAxis.Range = rng
	}

	switch fig.XKind {
	case chart.XTime:
		times := make([]time.Time, 0, len(xs))
		for _, x := range xs {
			times = append(times, time.Unix(int64(x), 0).UTC())
		}
		c.XAxis.Range = nil
		c.XAxis.ValueFormatter = gochart.TimeDateValueFormatter
		if len(times) == 1 {
			times = append(times, times[0].Add(24*time.Hour))
			ys = append(ys, ys[0])
		}
		c.Series = []gochart.Series{gochart.TimeSeries{Name: fig.YLabel, XValues: times, YValues: ys, Style: style}}
	case chart.XCategory:
		c.XAxis.Ticks = categoryTicks(fig.Points)
		c.Series = []gochart.Series{gochart.ContinuousSeries{Name: fig.YLabel, XValues: xs, YValues: ys, Style: style}}
	default:
		c.Series = []gochart.Series{gochart.ContinuousSeries{Name: fig.YLabel, XValues: xs, YValues: ys, Style: style}}
	}
	return c
}

func categoryTicks(points []chart.Point) []gochart.Tick {
	seen := make(map[float64]bool)
	var ticks []gochart.Tick
	for _, p := range points {
		if seen[p.X] {
			continue
		}
		seen[p.X] = true
		ticks = append(ticks, gochart.Tick{Value: p.X, Label: p.Label})
	}
	return ticks
}

// padded returns an explicit range when all values are equal, which go-chart cannot scale.
func padded(values []float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(values) == 0 || lo != hi {
		return nil
	}
	return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

func zeroBased(values []gochart.Value) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v.Value)
		hi = math.Max(hi, v.Value)
	}
	if lo == hi {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}
