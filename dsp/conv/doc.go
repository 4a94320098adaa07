// Package conv provides the sliding-window correlation used by the
// smoothing filters in this module.
//
// Two strategies are available and [CorrelateValid] picks between them by
// kernel length:
//
//   - Direct: O(N*M) dot products, best for short kernels such as the
//     21-tap Savitzky–Golay window.
//   - Overlap-add: FFT block convolution for long kernels, see [OverlapAdd].
//
// # Usage
//
//	out, err := conv.CorrelateValid(signal, kernel)
//	// len(out) == len(signal) - len(kernel) + 1
//	// out[i] == sum_k kernel[k] * signal[i+k]
package conv
