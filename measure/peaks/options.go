package peaks

import (
	"github.com/cwbudde/algo-peaks/dsp/filter/savgol"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// DefaultTopK is the number of peaks reported when no option overrides it.
const DefaultTopK = 2

// Config defines one parameterized run of the pipeline.
type Config struct {
	Window        int              // smoothing window length (odd)
	Order         int              // smoothing polynomial order
	TopK          int              // number of peaks to keep
	MinProminence float64          // candidates below it are dropped before ranking
	Restriction   *histogram.Range // nil ranks the full energy axis
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the instrument defaults: a 21-point cubic smoother
// and the two strongest peaks over the full energy axis.
func DefaultConfig() Config {
	return Config{
		Window: savgol.DefaultWindow,
		Order:  savgol.DefaultOrder,
		TopK:   DefaultTopK,
	}
}

// WithWindow sets the smoothing window length.
func WithWindow(window int) Option {
	return func(cfg *Config) {
		cfg.Window = window
	}
}

// WithOrder sets the smoothing polynomial order.
func WithOrder(order int) Option {
	return func(cfg *Config) {
		cfg.Order = order
	}
}

// WithTopK sets how many peaks are reported.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		cfg.TopK = k
	}
}

// WithMinProminence drops candidates with a lower prominence.
func WithMinProminence(p float64) Option {
	return func(cfg *Config) {
		cfg.MinProminence = p
	}
}

// WithRange restricts ranking to energies in [lo, hi].
func WithRange(lo, hi int) Option {
	return func(cfg *Config) {
		cfg.Restriction = &histogram.Range{Min: lo, Max: hi}
	}
}

// WithRestriction restricts ranking to r; nil removes the restriction.
func WithRestriction(r *histogram.Range) Option {
	return func(cfg *Config) {
		if r == nil {
			cfg.Restriction = nil
			return
		}
		rc := *r
		cfg.Restriction = &rc
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
