// Package peaks finds and ranks the dominant peaks of a combined-energy
// count histogram.
//
// The pipeline runs, in order:
//
//   - aggregation of detector rows into a histogram ([histogram.Aggregate]),
//   - Savitzky–Golay smoothing ([savgol.Filter]),
//   - local-maximum extraction with prominence ([peak.Find]),
//   - ranking by score = height × prominence, optionally restricted to an
//     energy range, keeping the top K ([Rank]),
//   - report formatting ([Ranking.Summary], [Ranking.Markers]).
//
// Every call is an independent run; an [Analyzer] only holds its validated
// configuration and may be shared between goroutines.
//
// # Usage
//
//	a, err := peaks.NewAnalyzer(peaks.WithTopK(2), peaks.WithRange(0, 399))
//	res, err := a.AnalyzeRows(rows)
//	fmt.Print(res.Ranking.Summary())
//
// A run that finds nothing is not an error: [Ranking.Empty] reports it and
// the summary says "No peak found".
package peaks
