package histogram

import "fmt"

// Range is a closed interval [Min, Max] on the energy axis.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// NewRange returns the range [lo, hi].
func NewRange(lo, hi int) (Range, error) {
	r := Range{Min: lo, Max: hi}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate reports ErrInvalidRange when Min > Max.
func (r Range) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether energy lies inside the closed interval.
func (r Range) Contains(energy int) bool {
	return energy >= r.Min && energy <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}
