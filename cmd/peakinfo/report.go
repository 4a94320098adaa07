package main

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// printText writes the histogram summary as an aligned table followed by
// the peak report.
func printText(w io.Writer, rep fileReport, header bool) error {
	if header {
		fmt.Fprintf(w, "== %s ==\n", rep.File)
	}

	h := rep.Histogram
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Bins:\t%d\n", h.Bins)
	fmt.Fprintf(tw, "Total counts:\t%.0f\n", h.Total)
	fmt.Fprintf(tw, "Energy span:\t[%d, %d]\n", h.MinEnergy, h.MaxEnergy)
	fmt.Fprintf(tw, "Centroid:\t%.2f\n", h.Centroid)
	fmt.Fprintf(tw, "Std dev:\t%.2f\n", h.StdDev)
	fmt.Fprintf(tw, "Mode:\t%d (%.0f counts)\n", h.ModeBin.Energy, h.ModeBin.Count)
	fmt.Fprintf(tw, "Candidates:\t%d\n", rep.Candidates)
	if rep.Plot != "" {
		fmt.Fprintf(tw, "Plot:\t%s\n", rep.Plot)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return rep.ranking.WriteText(w)
}
