// Package testutil provides deterministic count spectra and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// Line is a Gaussian peak on the energy axis.
type Line struct {
	Center    float64
	Amplitude float64
	Sigma     float64
}

// Spectrum evaluates background plus the sum of lines at energies
// 0..length-1.
func Spectrum(length int, background float64, lines ...Line) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = background
		for _, l := range lines {
			d := (float64(i) - l.Center) / l.Sigma
			out[i] += l.Amplitude * math.Exp(-0.5*d*d)
		}
	}
	return out
}

// AddNoise adds deterministic uniform noise in [-amplitude, amplitude] and
// clips the result at zero so it stays a valid count spectrum.
func AddNoise(counts []float64, seed int64, amplitude float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = max(0, c+(rng.Float64()*2-1)*amplitude)
	}
	return out
}

// Spike returns zeros with a single value at pos.
func Spike(length, pos int, height float64) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = height
	}
	return out
}

// Constant returns length copies of value.
func Constant(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp returns start, start+step, ... of the given length.
func Ramp(start, step float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// Series wraps counts on the energy axis offset, offset+1, ...
func Series(offset int, counts []float64) histogram.Series {
	energies := make([]int, len(counts))
	for i := range energies {
		energies[i] = offset + i
	}
	s, err := histogram.NewSeries(energies, counts)
	if err != nil {
		panic(err)
	}
	return s
}

// Rows expands counts into detector rows whose channels sum to the energy
// axis offset, offset+1, ... Each bin is split over two rows so tests
// exercise the grouping in the aggregator.
func Rows(offset int, counts []float64) []histogram.Row {
	rows := make([]histogram.Row, 0, 2*len(counts))
	for i, c := range counts {
		e := offset + i
		a := math.Floor(c / 2)
		rows = append(rows,
			histogram.Row{CH1: e / 2, CH2: e - e/2, Counts: a},
			histogram.Row{CH1: e, CH2: 0, Counts: c - a},
		)
	}
	return rows
}
