package peaks

import (
	"cmp"
	"slices"

	"github.com/cwbudde/algo-peaks/stats/histogram"
	"github.com/cwbudde/algo-vecmath"
)

// Candidate is a local maximum of the smoothed histogram.
type Candidate struct {
	Energy     int     `json:"energy"`
	Height     float64 `json:"height"`
	Prominence float64 `json:"prominence"`
}

// RankedPeak is a Candidate with its score and 1-based rank.
type RankedPeak struct {
	Candidate
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Ranking is the outcome of Rank. An empty Ranking is a valid result
// meaning no candidate survived the restriction.
type Ranking struct {
	Peaks       []RankedPeak     `json:"peaks"`
	Requested   int              `json:"requested"`
	Restriction *histogram.Range `json:"restriction,omitempty"`
}

// Empty reports whether no peak was found.
func (r Ranking) Empty() bool { return len(r.Peaks) == 0 }

// Rank scores candidates by height × prominence and returns the k best in
// descending score order. Candidates outside restriction are discarded
// first; a nil restriction keeps all. Equal scores are ordered by ascending
// energy. k <= 0 keeps every surviving candidate.
func Rank(cands []Candidate, k int, restriction *histogram.Range) Ranking {
	k = max(k, 0)
	out := Ranking{Requested: k}
	if restriction != nil {
		rc := *restriction
		out.Restriction = &rc
	}

	eligible := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if restriction == nil || restriction.Contains(c.Energy) {
			eligible = append(eligible, c)
		}
	}
	if k == 0 {
		k = len(eligible)
	}
	out.Peaks = make([]RankedPeak, 0, min(k, len(eligible)))
	if len(eligible) == 0 {
		return out
	}

	heights := make([]float64, len(eligible))
	proms := make([]float64, len(eligible))
	for i, c := range eligible {
		heights[i] = c.Height
		proms[i] = c.Prominence
	}
	scores := make([]float64, len(eligible))
	vecmath.MulBlock(scores, heights, proms)

	order := make([]int, len(eligible))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(eligible[a].Energy, eligible[b].Energy)
	})

	for rank, i := range order[:min(k, len(order))] {
		out.Peaks = append(out.Peaks, RankedPeak{
			Candidate: eligible[i],
			Score:     scores[i],
			Rank:      rank + 1,
		})
	}
	return out
}
