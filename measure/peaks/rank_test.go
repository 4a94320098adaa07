package peaks

import (
	"testing"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// threeCandidates scores 10, 30 and 20 at energies 100, 200 and 300.
func threeCandidates() []Candidate {
	return []Candidate{
		{Energy: 100, Height: 5, Prominence: 2},
		{Energy: 200, Height: 10, Prominence: 3},
		{Energy: 300, Height: 4, Prominence: 5},
	}
}

func TestRankTopK(t *testing.T) {
	r := Rank(threeCandidates(), 2, nil)
	if len(r.Peaks) != 2 {
		t.Fatalf("got %d peaks, want 2", len(r.Peaks))
	}
	if r.Peaks[0].Score != 30 || r.Peaks[1].Score != 20 {
		t.Fatalf("scores = [%v %v], want [30 20]", r.Peaks[0].Score, r.Peaks[1].Score)
	}
	if r.Peaks[0].Rank != 1 || r.Peaks[1].Rank != 2 {
		t.Fatalf("ranks = [%d %d], want [1 2]", r.Peaks[0].Rank, r.Peaks[1].Rank)
	}
	if r.Peaks[0].Energy != 200 || r.Peaks[1].Energy != 300 {
		t.Fatalf("energies = [%d %d], want [200 300]", r.Peaks[0].Energy, r.Peaks[1].Energy)
	}
}

func TestRankFewerThanK(t *testing.T) {
	r := Rank(threeCandidates(), 5, nil)
	if len(r.Peaks) != 3 {
		t.Fatalf("got %d peaks, want 3", len(r.Peaks))
	}
	for i, p := range r.Peaks {
		if p.Rank != i+1 {
			t.Fatalf("peak %d has rank %d", i, p.Rank)
		}
	}
	if r.Requested != 5 {
		t.Fatalf("requested = %d, want 5", r.Requested)
	}
}

func TestRankAllSurvivors(t *testing.T) {
	for _, k := range []int{0, -3} {
		r := Rank(threeCandidates(), k, &histogram.Range{Min: 0, Max: 250})
		if r.Empty() {
			t.Fatalf("k=%d: ranking empty, want both survivors", k)
		}
		if len(r.Peaks) != 2 || r.Peaks[0].Energy != 200 || r.Peaks[1].Energy != 100 {
			t.Fatalf("k=%d: peaks = %+v, want energies [200 100]", k, r.Peaks)
		}
		if r.Requested != 0 {
			t.Fatalf("k=%d: requested = %d, want 0", k, r.Requested)
		}
		if got := r.Summary(); got == "No peak found.\n" {
			t.Fatalf("k=%d: summary reports no peak", k)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	tests := []struct {
		name  string
		cands []Candidate
		k     int
		r     *histogram.Range
	}{
		{name: "no candidates", cands: nil, k: 2},
		{name: "all outside range", cands: threeCandidates(), k: 2, r: &histogram.Range{Min: 400, Max: 900}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Rank(tt.cands, tt.k, tt.r)
			if !r.Empty() {
				t.Fatalf("expected empty ranking, got %+v", r.Peaks)
			}
			if r.Peaks == nil {
				t.Fatal("expected non-nil empty peak slice")
			}
		})
	}
}

func TestRankRestriction(t *testing.T) {
	cands := append(threeCandidates(), Candidate{Energy: 500, Height: 100, Prominence: 100})

	r := Rank(cands, 4, &histogram.Range{Min: 0, Max: 400})
	for _, p := range r.Peaks {
		if p.Energy == 500 {
			t.Fatal("candidate at 500 survived restriction [0, 400]")
		}
	}
	if len(r.Peaks) != 3 {
		t.Fatalf("got %d peaks, want 3", len(r.Peaks))
	}

	// Closed interval: both bounds are eligible.
	r = Rank(cands, 4, &histogram.Range{Min: 100, Max: 300})
	if len(r.Peaks) != 3 {
		t.Fatalf("closed interval kept %d peaks, want 3", len(r.Peaks))
	}

	unrestricted := Rank(cands, 1, nil)
	if unrestricted.Peaks[0].Energy != 500 {
		t.Fatalf("top peak = %d, want 500 without restriction", unrestricted.Peaks[0].Energy)
	}
}

func TestRankTiesByEnergy(t *testing.T) {
	cands := []Candidate{
		{Energy: 30, Height: 2, Prominence: 3},
		{Energy: 10, Height: 3, Prominence: 2},
		{Energy: 20, Height: 6, Prominence: 1},
	}
	for range 5 {
		r := Rank(cands, 3, nil)
		for i, want := range []int{10, 20, 30} {
			if r.Peaks[i].Energy != want {
				t.Fatalf("tie order = %+v, want ascending energy", r.Peaks)
			}
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	cands := threeCandidates()
	r := &histogram.Range{Min: 0, Max: 250}
	got := Rank(cands, 2, r)

	if cands[0].Energy != 100 || cands[2].Energy != 300 {
		t.Fatal("Rank reordered its input")
	}
	r.Max = 1000
	if got.Restriction.Max != 250 {
		t.Fatal("ranking aliases the caller's restriction")
	}
}
