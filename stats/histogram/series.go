package histogram

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bin is one (energy, count) pair of a Series.
type Bin struct {
	Energy int     `json:"energy"`
	Count  float64 `json:"count"`
}

// Series is an energy-ordered histogram: one count per unique combined
// energy, energies strictly ascending. The zero value is an empty series.
//
// A Series is immutable once built; accessors return copies.
type Series struct {
	energies []int
	counts   []float64
}

// NewSeries builds a Series from parallel energy and count slices. The
// slices are copied. Energies must be strictly ascending and counts finite;
// counts may be negative so that smoothed series can be represented too.
func NewSeries(energies []int, counts []float64) (Series, error) {
	if len(energies) != len(counts) {
		return Series{}, fmt.Errorf("%w: %d energies, %d counts", ErrLengthMismatch, len(energies), len(counts))
	}
	for i := 1; i < len(energies); i++ {
		if energies[i] <= energies[i-1] {
			return Series{}, fmt.Errorf("%w: %d follows %d", ErrUnsorted, energies[i], energies[i-1])
		}
	}
	for _, c := range counts {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Series{}, fmt.Errorf("%w: count %v", ErrNotFinite, c)
		}
	}

	s := Series{
		energies: make([]int, len(energies)),
		counts:   make([]float64, len(counts)),
	}
	copy(s.energies, energies)
	copy(s.counts, counts)
	return s, nil
}

// Len returns the number of bins.
func (s Series) Len() int { return len(s.energies) }

// At returns bin i.
func (s Series) At(i int) Bin {
	return Bin{Energy: s.energies[i], Count: s.counts[i]}
}

// Energies returns a copy of the energy axis.
func (s Series) Energies() []int {
	out := make([]int, len(s.energies))
	copy(out, s.energies)
	return out
}

// Counts returns a copy of the count values.
func (s Series) Counts() []float64 {
	out := make([]float64, len(s.counts))
	copy(out, s.counts)
	return out
}

// Bins returns the series as (energy, count) pairs.
func (s Series) Bins() []Bin {
	out := make([]Bin, len(s.energies))
	for i := range s.energies {
		out[i] = s.At(i)
	}
	return out
}

// Total returns the sum of all counts.
func (s Series) Total() float64 {
	return floats.Sum(s.counts)
}

// Span returns the first and last energy. ok is false for an empty series.
func (s Series) Span() (lo, hi int, ok bool) {
	if len(s.energies) == 0 {
		return 0, 0, false
	}
	return s.energies[0], s.energies[len(s.energies)-1], true
}

// WithCounts returns a series on the same energy axis carrying counts.
// It is used to attach smoothed values to the histogram they came from.
func (s Series) WithCounts(counts []float64) (Series, error) {
	return NewSeries(s.energies, counts)
}

// Restrict returns the bins whose energy lies inside r.
func (s Series) Restrict(r Range) Series {
	var out Series
	for i, e := range s.energies {
		if r.Contains(e) {
			out.energies = append(out.energies, e)
			out.counts = append(out.counts, s.counts[i])
		}
	}
	return out
}

// MarshalJSON encodes the series as an array of bins.
func (s Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Bins())
}

// UnmarshalJSON decodes an array of bins, enforcing the NewSeries rules.
func (s *Series) UnmarshalJSON(data []byte) error {
	var bins []Bin
	if err := json.Unmarshal(data, &bins); err != nil {
		return err
	}
	energies := make([]int, len(bins))
	counts := make([]float64, len(bins))
	for i, b := range bins {
		energies[i] = b.Energy
		counts[i] = b.Count
	}
	out, err := NewSeries(energies, counts)
	if err != nil {
		return err
	}
	*s = out
	return nil
}
