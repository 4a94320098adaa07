package peaks

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-peaks/dsp/filter/savgol"
	"github.com/cwbudde/algo-peaks/dsp/peak"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// Errors returned by analyzer construction.
var (
	ErrInvalidTopK = errors.New("peaks: top-k must be >= 0")
)

// Result holds everything one run produces: the histogram for the bar
// chart, the smoothed curve for the overlay, every candidate and the
// ranked selection.
type Result struct {
	Series     histogram.Series  `json:"series"`
	Smoothed   histogram.Series  `json:"smoothed"`
	Summary    histogram.Summary `json:"summary"`
	Candidates []Candidate       `json:"candidates"`
	Ranking    Ranking           `json:"ranking"`
}

// Analyzer runs the peak pipeline with a fixed configuration.
type Analyzer struct {
	cfg      Config
	smoother *savgol.Filter
}

// NewAnalyzer validates the options and designs the smoothing filter.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	cfg := ApplyOptions(opts...)

	if cfg.TopK < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, cfg.TopK)
	}
	if cfg.MinProminence < 0 || math.IsNaN(cfg.MinProminence) {
		return nil, fmt.Errorf("%w: %v", peak.ErrInvalidMinProminence, cfg.MinProminence)
	}
	if cfg.Restriction != nil {
		if err := cfg.Restriction.Validate(); err != nil {
			return nil, err
		}
	}

	smoother, err := savgol.New(cfg.Window, cfg.Order)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, smoother: smoother}, nil
}

// Config returns a copy of the analyzer configuration.
func (a *Analyzer) Config() Config {
	cfg := a.cfg
	if cfg.Restriction != nil {
		r := *cfg.Restriction
		cfg.Restriction = &r
	}
	return cfg
}

// Analyze smooths s, extracts candidates and ranks them. It fails with
// savgol.ErrSeriesTooShort when s has fewer bins than the smoothing window.
func (a *Analyzer) Analyze(s histogram.Series) (Result, error) {
	counts, err := a.smoother.Apply(s.Counts())
	if err != nil {
		return Result{}, err
	}
	smoothed, err := s.WithCounts(counts)
	if err != nil {
		return Result{}, err
	}

	found, err := peak.Find(counts, peak.WithMinProminence(a.cfg.MinProminence))
	if err != nil {
		return Result{}, err
	}

	energies := s.Energies()
	cands := make([]Candidate, len(found))
	for i, p := range found {
		cands[i] = Candidate{
			Energy:     energies[p.Index],
			Height:     p.Height,
			Prominence: p.Prominence,
		}
	}

	return Result{
		Series:     s,
		Smoothed:   smoothed,
		Summary:    histogram.Summarize(s),
		Candidates: cands,
		Ranking:    Rank(cands, a.cfg.TopK, a.cfg.Restriction),
	}, nil
}

// AnalyzeRows aggregates rows and analyzes the resulting histogram.
func (a *Analyzer) AnalyzeRows(rows []histogram.Row) (Result, error) {
	return a.Analyze(histogram.Aggregate(rows))
}

// AnalyzeTable checks t against schema, aggregates it and analyzes the
// result. Missing columns fail with a *histogram.SchemaError before any
// smoothing is attempted.
func (a *Analyzer) AnalyzeTable(t histogram.Table, schema histogram.Schema) (Result, error) {
	s, err := histogram.AggregateTable(t, schema)
	if err != nil {
		return Result{}, err
	}
	return a.Analyze(s)
}
