package histogram

import (
	"fmt"
	"math"
	"slices"
)

// Default column names written by the two-channel acquisition software.
const (
	DefaultCH1Column    = "CH1(ch)"
	DefaultCH2Column    = "CH2(ch)"
	DefaultCountsColumn = "Counts"
)

// Row is one event record: two channel readings and a count.
type Row struct {
	CH1    int
	CH2    int
	Counts float64
}

// Energy returns the combined energy CH1 + CH2.
func (r Row) Energy() int { return r.CH1 + r.CH2 }

// Table is a parsed numeric table whose column set is known only at run time.
type Table struct {
	Columns []string
	Values  [][]float64
}

// Schema names the three columns the aggregator needs.
type Schema struct {
	CH1    string `yaml:"ch1"`
	CH2    string `yaml:"ch2"`
	Counts string `yaml:"counts"`
}

// DefaultSchema returns the instrument's column names.
func DefaultSchema() Schema {
	return Schema{
		CH1:    DefaultCH1Column,
		CH2:    DefaultCH2Column,
		Counts: DefaultCountsColumn,
	}
}

// Names returns the required column names in CH1, CH2, Counts order.
func (s Schema) Names() []string {
	return []string{s.CH1, s.CH2, s.Counts}
}

// Check reports a *SchemaError listing every required column absent from
// columns.
func (s Schema) Check(columns []string) error {
	_, err := s.indices(columns)
	return err
}

func (s Schema) indices(columns []string) ([3]int, error) {
	idx := [3]int{-1, -1, -1}
	var missing []string
	for k, name := range s.Names() {
		idx[k] = slices.Index(columns, name)
		if idx[k] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Missing: missing}
	}
	return idx, nil
}

// Rows extracts typed rows from t. It fails with a *SchemaError when a
// required column is missing, and with ErrNonIntegralChannel, ErrNotFinite
// or ErrNegativeCount when a value cannot describe an event.
func (s Schema) Rows(t Table) ([]Row, error) {
	idx, err := s.indices(t.Columns)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(t.Values))
	for line, values := range t.Values {
		for _, i := range idx {
			if i >= len(values) {
				return nil, fmt.Errorf("row %d: %w", line, &SchemaError{Missing: []string{t.Columns[i]}})
			}
		}

		ch1, err := channel(values[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, s.CH1, err)
		}
		ch2, err := channel(values[idx[1]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, s.CH2, err)
		}
		count := values[idx[2]]
		if math.IsNaN(count) || math.IsInf(count, 0) {
			return nil, fmt.Errorf("row %d: %s: %w", line, s.Counts, ErrNotFinite)
		}
		if count < 0 {
			return nil, fmt.Errorf("row %d: %s: %w: %v", line, s.Counts, ErrNegativeCount, count)
		}

		rows = append(rows, Row{CH1: ch1, CH2: ch2, Counts: count})
	}
	return rows, nil
}

func channel(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %v", ErrNonIntegralChannel, v)
	}
	return int(v), nil
}

// Aggregate groups rows by combined energy and sums their counts. The result
// is ordered by ascending energy with one bin per distinct energy.
func Aggregate(rows []Row) Series {
	sums := make(map[int]float64, len(rows))
	for _, r := range rows {
		sums[r.Energy()] += r.Counts
	}

	var s Series
	s.energies = make([]int, 0, len(sums))
	for e := range sums {
		s.energies = append(s.energies, e)
	}
	slices.Sort(s.energies)

	s.counts = make([]float64, len(s.energies))
	for i, e := range s.energies {
		s.counts[i] = sums[e]
	}
	return s
}

// AggregateTable validates t against schema and aggregates its rows.
func AggregateTable(t Table, schema Schema) (Series, error) {
	rows, err := schema.Rows(t)
	if err != nil {
		return Series{}, err
	}
	return Aggregate(rows), nil
}
