package testutil

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if !scalar.EqualWithinAbs(got[i], want[i], eps) {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], math.Abs(got[i]-want[i]), eps)
		}
	}
}

// RequireSeriesNearlyEqual fails t unless got and want share the energy axis
// and their counts agree within eps.
func RequireSeriesNearlyEqual(t testing.TB, got, want histogram.Series, eps float64) {
	t.Helper()
	if ge, we := got.Energies(), want.Energies(); !slices.Equal(ge, we) {
		t.Fatalf("energy axis differs: got %d bins %v, want %d bins %v", len(ge), span(ge), len(we), span(we))
	}
	RequireSliceNearlyEqual(t, got.Counts(), want.Counts(), eps)
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

func span(energies []int) [2]int {
	if len(energies) == 0 {
		return [2]int{}
	}
	return [2]int{energies[0], energies[len(energies)-1]}
}
