// Package render draws the histogram, its smoothed overlay and the ranked
// peaks into a PNG chart.
package render

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cwbudde/algo-peaks/measure/peaks"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// DefaultFileName is the name offered for a downloaded plot.
const DefaultFileName = "1d_histogram_with_peaks.png"

const (
	DefaultWidth  = 800
	DefaultHeight = 400

	minSize  = 64
	headroom = 1.05
)

// Series names, in drawing order. They double as legend labels.
const (
	SeriesCounts    = "Original"
	SeriesSmoothed  = "Smoothed"
	SeriesThreshold = "Threshold"
	SeriesPeaks     = "Top Peaks"
)

var (
	ErrEmptySeries = errors.New("render: nothing to draw")
	ErrInvalidSize = errors.New("render: image too small")
)

var (
	colorBar       = drawing.Color{R: 135, G: 206, B: 235, A: 255}
	colorSmoothed  = drawing.Color{R: 255, G: 127, B: 14, A: 255}
	colorThreshold = drawing.Color{R: 128, G: 128, B: 128, A: 255}
	colorMarker    = drawing.Color{R: 220, G: 20, B: 20, A: 255}
)

// Config controls the plot layout.
type Config struct {
	Width   int
	Height  int
	Display *histogram.Range // nil spans [0, max energy]
}

// Option mutates a Config.
type Option func(*Config)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(cfg *Config) {
		cfg.Width = width
		cfg.Height = height
	}
}

// WithDisplay limits the drawn energies to r; nil restores the default.
func WithDisplay(r *histogram.Range) Option {
	return func(cfg *Config) {
		if r == nil {
			cfg.Display = nil
			return
		}
		rc := *r
		cfg.Display = &rc
	}
}

func applyOptions(opts ...Option) Config {
	cfg := Config{Width: DefaultWidth, Height: DefaultHeight}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WritePNG renders res and encodes it as PNG.
func WritePNG(w io.Writer, res peaks.Result, opts ...Option) error {
	ch, err := Chart(res, opts...)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Chart lays out res: filled bars over the display range, the smoothed
// curve, a dashed vertical line at the upper bound of the ranking
// restriction and one marker per ranked peak, with a legend naming each.
// Everything is clipped to the display range.
func Chart(res peaks.Result, opts ...Option) (chart.Chart, error) {
	cfg := applyOptions(opts...)
	if cfg.Width < minSize || cfg.Height < minSize {
		return chart.Chart{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}

	lo, hi, ok := res.Series.Span()
	if !ok {
		return chart.Chart{}, ErrEmptySeries
	}
	display := histogram.Range{Min: min(0, lo), Max: hi}
	if cfg.Display != nil {
		if err := cfg.Display.Validate(); err != nil {
			return chart.Chart{}, err
		}
		display = *cfg.Display
	}
	if res.Series.Restrict(display).Len() == 0 {
		return chart.Chart{}, fmt.Errorf("%w: no bins in display range %s", ErrEmptySeries, display)
	}
	yMax := yLimit(res, display)

	series := []chart.Series{
		bars(res.Series.Restrict(display)),
		curve(res.Smoothed.Restrict(display)),
	}
	if r := res.Ranking.Restriction; r != nil && display.Contains(r.Max) {
		series = append(series, threshold(float64(r.Max)+0.5, yMax))
	}
	if m := markers(res.Ranking.Markers(), display); m != nil {
		series = append(series, *m)
	}

	ch := chart.Chart{
		Width:  cfg.Width,
		Height: cfg.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "sum_energy",
			Range: &chart.ContinuousRange{Min: float64(display.Min), Max: float64(display.Max) + 1},
		},
		YAxis: chart.YAxis{
			Name:  "counts",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

func yLimit(res peaks.Result, display histogram.Range) float64 {
	top := 0.0
	for _, s := range []histogram.Series{res.Series, res.Smoothed} {
		for _, c := range s.Restrict(display).Counts() {
			top = max(top, c)
		}
	}
	if top <= 0 {
		return 1
	}
	return top * headroom
}

// bars traces the top edge of every bin so the filled area reads as a bar
// chart.
func bars(s histogram.Series) chart.ContinuousSeries {
	xs := make([]float64, 0, 2*s.Len())
	ys := make([]float64, 0, 2*s.Len())
	for _, b := range s.Bins() {
		c := max(b.Count, 0)
		xs = append(xs, float64(b.Energy), float64(b.Energy)+1)
		ys = append(ys, c, c)
	}
	return chart.ContinuousSeries{
		Name: SeriesCounts,
		Style: chart.Style{
			StrokeColor: colorBar,
			StrokeWidth: 1,
			FillColor:   colorBar.WithAlpha(160),
		},
		XValues: xs,
		YValues: ys,
	}
}

func curve(s histogram.Series) chart.ContinuousSeries {
	xs := make([]float64, 0, s.Len())
	ys := make([]float64, 0, s.Len())
	for _, b := range s.Bins() {
		xs = append(xs, float64(b.Energy)+0.5)
		ys = append(ys, b.Count)
	}
	return chart.ContinuousSeries{
		Name: SeriesSmoothed,
		Style: chart.Style{
			StrokeColor: colorSmoothed,
			StrokeWidth: 2,
		},
		XValues: xs,
		YValues: ys,
	}
}

func threshold(x, yMax float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: SeriesThreshold,
		Style: chart.Style{
			StrokeColor:     colorThreshold,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{6, 4},
		},
		XValues: []float64{x, x},
		YValues: []float64{0, yMax},
	}
}

func markers(ms []peaks.Marker, display histogram.Range) *chart.ContinuousSeries {
	var xs, ys []float64
	for _, m := range ms {
		if display.Contains(m.Energy) {
			xs = append(xs, float64(m.Energy)+0.5)
			ys = append(ys, m.Height)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	return &chart.ContinuousSeries{
		Name: SeriesPeaks,
		Style: chart.Style{
			StrokeColor: drawing.ColorTransparent,
			StrokeWidth: 1,
			DotColor:    colorMarker,
			DotWidth:    5,
		},
		XValues: xs,
		YValues: ys,
	}
}
