// Command peakinfo finds the dominant peaks of two-channel detector
// histograms.
//
// Usage:
//
//	peakinfo analyze [flags] FILE...
//	peakinfo serve [--addr :8080]
//	peakinfo version
//
// Examples:
//
//	peakinfo analyze run.csv
//	peakinfo analyze --preset original --plot peaks.png run.csv
//	peakinfo analyze --format json --jobs 4 runs/*.csv.gz
//	peakinfo serve --config peakinfo.yaml
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/algo-peaks/internal/config"
	"github.com/cwbudde/algo-peaks/internal/logging"
)

// Exit codes.
const (
	ExitSuccess = 0 // analysis ran, with or without peaks
	ExitFailure = 1 // unreadable input, schema or too-short series
	ExitUsage   = 2 // bad flags or configuration
)

// usageError marks errors caused by the command line itself.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, config.ErrUnknownPreset),
		errors.Is(err, logging.ErrInvalidLevel),
		errors.Is(err, logging.ErrInvalidFormat):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
