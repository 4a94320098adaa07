package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// ReadCSV reads a comma-separated table. Instrument exports start with a
// free-form preamble; the header is the first record holding every schema
// column unless SkipRows names its position. Cells that are not numbers
// become NaN and are only rejected if a required column holds them.
func ReadCSV(r io.Reader, opts ...Option) (histogram.Table, error) {
	cfg := ApplyOptions(opts...)
	if cfg.SkipRows < 0 {
		return histogram.Table{}, fmt.Errorf("%w: %d", ErrInvalidSkipRows, cfg.SkipRows)
	}

	br := bufio.NewReader(r)
	for i := 0; i < cfg.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return histogram.Table{}, &histogram.SchemaError{Missing: cfg.Schema.Names()}
			}
			return histogram.Table{}, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return readTable(csvRecords{cr}, cfg)
}

// records yields one table row at a time and io.EOF after the last.
type records interface {
	Read() ([]string, error)
}

type csvRecords struct{ r *csv.Reader }

func (c csvRecords) Read() ([]string, error) {
	rec, err := c.r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return rec, err
}

// readTable locates the header in rr and parses every following non-blank
// record into a row of the table.
func readTable(rr records, cfg Config) (histogram.Table, error) {
	header, err := findHeader(rr, cfg)
	if err != nil {
		return histogram.Table{}, err
	}

	t := histogram.Table{Columns: header}
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return histogram.Table{}, err
		}
		if blank(rec) {
			continue
		}
		values := make([]float64, len(header))
		for i := range values {
			values[i] = math.NaN()
			if i < len(rec) {
				values[i] = parseCell(rec[i])
			}
		}
		t.Values = append(t.Values, values)
	}
	return t, nil
}

func findHeader(rr records, cfg Config) ([]string, error) {
	var best []string
	bestHits := -1
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		cols := normalizeHeader(rec)
		if err := cfg.Schema.Check(cols); err == nil {
			return cols, nil
		} else if cfg.SkipRows > 0 {
			return nil, err
		}
		if hits := matches(cols, cfg.Schema); hits > bestHits {
			best, bestHits = cols, hits
		}
	}
	if err := cfg.Schema.Check(best); err != nil {
		return nil, err
	}
	return best, nil
}

func normalizeHeader(rec []string) []string {
	cols := make([]string, len(rec))
	for i, c := range rec {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}
	return cols
}

func matches(cols []string, s histogram.Schema) int {
	n := 0
	for _, name := range s.Names() {
		if slices.Contains(cols, name) {
			n++
		}
	}
	return n
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseCell(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
