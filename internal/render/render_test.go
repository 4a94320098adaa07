package render

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/cwbudde/algo-peaks/internal/testutil"
	"github.com/cwbudde/algo-peaks/measure/peaks"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

func analyzed(t *testing.T, opts ...peaks.Option) peaks.Result {
	t.Helper()
	counts := testutil.Spectrum(600, 2,
		testutil.Line{Center: 150, Amplitude: 60, Sigma: 10},
		testutil.Line{Center: 450, Amplitude: 40, Sigma: 12},
	)
	a, err := peaks.NewAnalyzer(opts...)
	require.NoError(t, err)
	res, err := a.Analyze(testutil.Series(0, counts))
	require.NoError(t, err)
	require.False(t, res.Ranking.Empty())
	return res
}

func seriesByName(t *testing.T, ch chart.Chart) map[string]chart.ContinuousSeries {
	t.Helper()
	out := make(map[string]chart.ContinuousSeries, len(ch.Series))
	for _, s := range ch.Series {
		cs, ok := s.(chart.ContinuousSeries)
		require.True(t, ok, "unexpected series type %T", s)
		out[cs.Name] = cs
	}
	return out
}

func TestChartLayers(t *testing.T) {
	res := analyzed(t, peaks.WithRange(0, 399))
	ch, err := Chart(res)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, ch.Width)
	assert.Equal(t, DefaultHeight, ch.Height)

	s := seriesByName(t, ch)
	require.Len(t, s, 4)
	assert.Len(t, ch.Elements, 1, "legend")
	for _, name := range []string{"Original", "Smoothed", "Threshold", "Top Peaks"} {
		assert.Contains(t, s, name)
	}

	assert.Len(t, s[SeriesCounts].XValues, 2*600)
	assert.Len(t, s[SeriesSmoothed].XValues, 600)
	assert.Equal(t, []float64{399.5, 399.5}, s[SeriesThreshold].XValues)
	assert.Equal(t, []float64{6, 4}, s[SeriesThreshold].Style.StrokeDashArray)

	markers := s[SeriesPeaks]
	require.Len(t, markers.XValues, len(res.Ranking.Peaks))
	for i, p := range res.Ranking.Peaks {
		assert.Equal(t, float64(p.Energy)+0.5, markers.XValues[i])
		assert.Equal(t, p.Height, markers.YValues[i])
	}

	xr := ch.XAxis.Range.(*chart.ContinuousRange)
	assert.Equal(t, 0.0, xr.Min)
	assert.Equal(t, 600.0, xr.Max)
	yr := ch.YAxis.Range.(*chart.ContinuousRange)
	assert.Greater(t, yr.Max, res.Ranking.Peaks[0].Height)
}

func TestChartNoRestrictionNoThreshold(t *testing.T) {
	ch, err := Chart(analyzed(t))
	require.NoError(t, err)
	_, ok := seriesByName(t, ch)[SeriesThreshold]
	assert.False(t, ok)
}

func TestChartDisplayRange(t *testing.T) {
	ch, err := Chart(analyzed(t), WithDisplay(&histogram.Range{Min: 250, Max: 350}))
	require.NoError(t, err)

	s := seriesByName(t, ch)
	_, ok := s[SeriesPeaks]
	assert.False(t, ok, "both peaks lie outside the display range")
	assert.Len(t, s[SeriesSmoothed].XValues, 101)
	assert.Equal(t, 250.0, s[SeriesCounts].XValues[0])
	assert.Equal(t, 351.0, s[SeriesCounts].XValues[len(s[SeriesCounts].XValues)-1])
}

func TestChartErrors(t *testing.T) {
	_, err := Chart(peaks.Result{})
	assert.ErrorIs(t, err, ErrEmptySeries)

	res := analyzed(t)
	_, err = Chart(res, WithSize(20, 20))
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Chart(res, WithDisplay(&histogram.Range{Min: 5, Max: 1}))
	assert.ErrorIs(t, err, histogram.ErrInvalidRange)

	_, err = Chart(res, WithDisplay(&histogram.Range{Min: 1000, Max: 2000}))
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, analyzed(t), WithSize(320, 200)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 200), img.Bounds())

	reddish := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 > 180 && g>>8 < 90 && bl>>8 < 90 {
				reddish++
			}
		}
	}
	assert.Positive(t, reddish, "peak markers")
}
