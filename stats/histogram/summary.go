package histogram

import "gonum.org/v1/gonum/stat"

// Summary holds count-weighted statistics of a Series.
type Summary struct {
	Bins      int     `json:"bins"`
	Total     float64 `json:"total"`
	MinEnergy int     `json:"min_energy"`
	MaxEnergy int     `json:"max_energy"`
	Centroid  float64 `json:"centroid"` // count-weighted mean energy
	StdDev    float64 `json:"std_dev"`  // count-weighted population spread around Centroid
	ModeBin   Bin     `json:"mode"`     // first bin holding the largest count
}

// Summarize computes the summary of s. Bins with non-positive counts do not
// move Centroid or StdDev; both stay zero when no bin has a positive count.
func Summarize(s Series) Summary {
	n := s.Len()
	if n == 0 {
		return Summary{}
	}

	sum := Summary{
		Bins:      n,
		Total:     s.Total(),
		MinEnergy: s.energies[0],
		MaxEnergy: s.energies[n-1],
		ModeBin:   s.At(0),
	}

	x := make([]float64, 0, n)
	w := make([]float64, 0, n)
	for i, c := range s.counts {
		if c > sum.ModeBin.Count {
			sum.ModeBin = s.At(i)
		}
		if c > 0 {
			x = append(x, float64(s.energies[i]))
			w = append(w, c)
		}
	}
	if len(x) == 0 {
		return sum
	}
	sum.Centroid, sum.StdDev = stat.PopMeanStdDev(x, w)
	return sum
}
