package conv

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by correlation functions.
var (
	ErrEmptyInput       = errors.New("conv: empty input")
	ErrEmptyKernel      = errors.New("conv: empty kernel")
	ErrKernelTooLong    = errors.New("conv: kernel longer than input")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
)

// directThreshold is the longest kernel handled by direct correlation.
const directThreshold = 64

// CorrelateValid returns the valid part of the cross-correlation of signal
// and kernel: out[i] = sum_k kernel[k]*signal[i+k] for
// i in [0, len(signal)-len(kernel)].
//
// Kernels up to 64 taps use direct dot products; longer kernels use
// FFT-based overlap-add.
func CorrelateValid(signal, kernel []float64) ([]float64, error) {
	if err := validate(signal, kernel); err != nil {
		return nil, err
	}
	if len(kernel) <= directThreshold {
		out := make([]float64, len(signal)-len(kernel)+1)
		directValid(out, signal, kernel)
		return out, nil
	}
	return CorrelateValidFFT(signal, kernel)
}

// CorrelateValidDirect is CorrelateValid forced onto the direct path.
func CorrelateValidDirect(signal, kernel []float64) ([]float64, error) {
	if err := validate(signal, kernel); err != nil {
		return nil, err
	}
	out := make([]float64, len(signal)-len(kernel)+1)
	directValid(out, signal, kernel)
	return out, nil
}

// CorrelateValidTo writes the valid correlation into dst, which must have
// length len(signal)-len(kernel)+1.
func CorrelateValidTo(dst, signal, kernel []float64) error {
	if err := validate(signal, kernel); err != nil {
		return err
	}
	if want := len(signal) - len(kernel) + 1; len(dst) != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrLengthMismatch, want, len(dst))
	}
	if len(kernel) <= directThreshold {
		directValid(dst, signal, kernel)
		return nil
	}

	out, err := CorrelateValidFFT(signal, kernel)
	if err != nil {
		return err
	}
	copy(dst, out)
	return nil
}

func validate(signal, kernel []float64) error {
	switch {
	case len(signal) == 0:
		return ErrEmptyInput
	case len(kernel) == 0:
		return ErrEmptyKernel
	case len(kernel) > len(signal):
		return fmt.Errorf("%w: kernel %d, input %d", ErrKernelTooLong, len(kernel), len(signal))
	}
	return nil
}

func directValid(dst, signal, kernel []float64) {
	m := len(kernel)
	for i := range dst {
		dst[i] = floats.Dot(kernel, signal[i:i+m])
	}
}
