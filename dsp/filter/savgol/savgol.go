package savgol

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-peaks/dsp/conv"
	"gonum.org/v1/gonum/mat"
)

// Default smoothing parameters.
const (
	DefaultWindow = 21
	DefaultOrder  = 3
)

// Errors returned by filter construction and application.
var (
	ErrInvalidWindow  = errors.New("savgol: window length must be odd and positive")
	ErrInvalidOrder   = errors.New("savgol: polynomial order must be in [0, window)")
	ErrSeriesTooShort = errors.New("savgol: series shorter than window")
)

// Filter is a designed Savitzky–Golay smoother. It holds no per-call state
// and is safe for concurrent use.
type Filter struct {
	window int
	order  int

	// pinv maps a window of samples to the coefficients of the fitted
	// polynomial in t = position - window/2, lowest degree first.
	pinv   *mat.Dense
	coeffs []float64
}

// New designs a filter with the given odd window length and polynomial order.
func New(window, order int) (*Filter, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: order %d, window %d", ErrInvalidOrder, order, window)
	}

	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for j := range window {
		t := float64(j - half)
		for k := 0; k <= order; k++ {
			vander.Set(j, k, math.Pow(t, float64(k)))
		}
	}

	ones := make([]float64, window)
	for i := range ones {
		ones[i] = 1
	}

	var pinv mat.Dense
	if err := pinv.Solve(vander, mat.NewDiagDense(window, ones)); err != nil {
		return nil, fmt.Errorf("savgol: least-squares design failed: %w", err)
	}

	return &Filter{
		window: window,
		order:  order,
		pinv:   &pinv,
		coeffs: mat.Row(nil, 0, &pinv),
	}, nil
}

// Window returns the window length.
func (f *Filter) Window() int { return f.window }

// Order returns the polynomial order.
func (f *Filter) Order() int { return f.order }

// Coefficients returns a copy of the interior smoothing coefficients.
// They are symmetric and sum to one.
func (f *Filter) Coefficients() []float64 {
	c := make([]float64, len(f.coeffs))
	copy(c, f.coeffs)
	return c
}

// Apply smooths x and returns a new slice of the same length.
// It fails with ErrSeriesTooShort when len(x) < Window.
func (f *Filter) Apply(x []float64) ([]float64, error) {
	n := len(x)
	if n < f.window {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrSeriesTooShort, n, f.window)
	}

	out := make([]float64, n)
	half := f.window / 2
	if err := conv.CorrelateValidTo(out[half:n-half], x, f.coeffs); err != nil {
		return nil, fmt.Errorf("savgol: %w", err)
	}

	f.fitEdge(out[:half], x[:f.window], -half)
	f.fitEdge(out[n-half:], x[n-f.window:], 1)
	return out, nil
}

// fitEdge fits the polynomial to window and evaluates it into dst at
// t = t0, t0+1, ... where t is measured from the window centre.
func (f *Filter) fitEdge(dst, window []float64, t0 int) {
	if len(dst) == 0 {
		return
	}

	var beta mat.VecDense
	beta.MulVec(f.pinv, mat.NewVecDense(len(window), window))

	for i := range dst {
		t := float64(t0 + i)
		var y float64
		for k := f.order; k >= 0; k-- {
			y = y*t + beta.AtVec(k)
		}
		dst[i] = y
	}
}

// Smooth is a convenience wrapper around New and Apply.
func Smooth(x []float64, window, order int) ([]float64, error) {
	f, err := New(window, order)
	if err != nil {
		return nil, err
	}
	return f.Apply(x)
}
