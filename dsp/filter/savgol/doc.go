// Package savgol implements Savitzky–Golay smoothing.
//
// A [Filter] fits a polynomial of degree Order by least squares to every
// window of Window consecutive samples and replaces the centre sample with
// the fitted value. For interior samples this reduces to a fixed FIR
// correlation with the filter [Filter.Coefficients]. The first and last
// Window/2 samples are taken from a single polynomial fitted to the first
// (last) Window samples and evaluated at the edge positions, so the output
// has the same length as the input.
//
// Smoothing keeps peak positions and heights far better than a moving
// average of the same length, which makes it a common pre-processing step
// for peak picking on count spectra.
//
//	f, err := savgol.New(21, 3)
//	smoothed, err := f.Apply(counts)
package savgol
