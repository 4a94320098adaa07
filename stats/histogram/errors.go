package histogram

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by histogram construction.
var (
	ErrSchema             = errors.New("histogram: required columns missing")
	ErrNegativeCount      = errors.New("histogram: negative count")
	ErrNonIntegralChannel = errors.New("histogram: channel value is not an integer")
	ErrNotFinite          = errors.New("histogram: value is not finite")
	ErrUnsorted           = errors.New("histogram: energies must be strictly ascending")
	ErrLengthMismatch     = errors.New("histogram: energies and counts differ in length")
	ErrInvalidRange       = errors.New("histogram: range minimum exceeds maximum")
)

// SchemaError reports the required columns a table does not provide.
// It matches [ErrSchema] with errors.Is.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, name := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%v: %s", ErrSchema, strings.Join(quoted, ", "))
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
