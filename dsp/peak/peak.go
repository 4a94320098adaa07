package peak

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMinProminence is returned for a negative or NaN prominence floor.
var ErrInvalidMinProminence = errors.New("peak: minimum prominence must be >= 0")

// Peak is one local maximum.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
}

// Config controls peak selection.
type Config struct {
	// MinProminence drops peaks whose prominence is below it. The default
	// of zero keeps every local maximum.
	MinProminence float64
}

// Option mutates a Config.
type Option func(*Config)

// WithMinProminence sets the prominence floor.
func WithMinProminence(p float64) Option {
	return func(cfg *Config) {
		cfg.MinProminence = p
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	var cfg Config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Find returns the peaks of values in increasing index order. Flat and
// monotonic input yields an empty, non-nil slice.
func Find(values []float64, opts ...Option) ([]Peak, error) {
	cfg := ApplyOptions(opts...)
	if cfg.MinProminence < 0 || math.IsNaN(cfg.MinProminence) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMinProminence, cfg.MinProminence)
	}

	peaks := make([]Peak, 0)
	for _, i := range LocalMaxima(values) {
		p := Prominence(values, i)
		if p < cfg.MinProminence {
			continue
		}
		peaks = append(peaks, Peak{Index: i, Height: values[i], Prominence: p})
	}
	return peaks, nil
}

// LocalMaxima returns the indices strictly greater than both neighbours,
// excluding the first and last index.
func LocalMaxima(values []float64) []int {
	var idx []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] > values[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// Prominence returns the prominence of the sample at index i, which is
// normally a local maximum. The walk on each side stops at the first
// sample >= values[i] or at the series boundary.
func Prominence(values []float64, i int) float64 {
	h := values[i]

	left := h
	for j := i - 1; j >= 0 && values[j] < h; j-- {
		left = math.Min(left, values[j])
	}

	right := h
	for j := i + 1; j < len(values) && values[j] < h; j++ {
		right = math.Min(right, values[j])
	}

	return h - math.Max(left, right)
}
