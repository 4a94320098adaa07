package peaks

import (
	"fmt"
	"io"
	"strings"
)

// Marker is one ranked peak as the plot overlay needs it.
type Marker struct {
	Rank       int     `json:"rank"`
	Energy     int     `json:"energy"`
	Height     float64 `json:"height"`
	Prominence float64 `json:"prominence"`
	Score      float64 `json:"score"`
}

// Markers returns the ranked peaks in rank order.
func (r Ranking) Markers() []Marker {
	out := make([]Marker, len(r.Peaks))
	for i, p := range r.Peaks {
		out[i] = Marker{
			Rank:       p.Rank,
			Energy:     p.Energy,
			Height:     p.Height,
			Prominence: p.Prominence,
			Score:      p.Score,
		}
	}
	return out
}

// Summary renders one line per ranked peak, or a single explanatory line
// when nothing was found.
func (r Ranking) Summary() string {
	var b strings.Builder
	_ = r.WriteText(&b)
	return b.String()
}

// WriteText writes the Summary text to w.
func (r Ranking) WriteText(w io.Writer) error {
	if r.Empty() {
		if r.Restriction != nil {
			_, err := fmt.Fprintf(w, "No peak found in sum_energy range %s.\n", r.Restriction)
			return err
		}
		_, err := fmt.Fprintln(w, "No peak found.")
		return err
	}

	for _, p := range r.Peaks {
		_, err := fmt.Fprintf(w, "Peak %d: sum_energy = %.1f, height = %.1f, prom = %.1f, score = %.1f\n",
			p.Rank, float64(p.Energy), p.Height, p.Prominence, p.Score)
		if err != nil {
			return err
		}
	}
	return nil
}
