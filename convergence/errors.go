package convergence

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain indicates a structurally invalid request: a block size out
	// of range, a mismatched identifier count, an empty eligible set for a
	// summary. It is never corrected silently.
	ErrDomain = errors.New("convergence: invalid request")

	// ErrFatalDataQuality indicates a series failed quality gating while
	// fail-fast mode was requested.
	ErrFatalDataQuality = errors.New("convergence: series failed quality gate")
)

func domainErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}

// QualityError carries the failing verdict of a series assessed in
// fail-fast mode. It matches ErrFatalDataQuality.
type QualityError struct {
	Verdict Verdict
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("%v: %s (retained fraction %.3f, %.1f effective samples)",
		ErrFatalDataQuality, e.Verdict.Reason, e.Verdict.RetainedFraction, e.Verdict.EffectiveSamples)
}

func (e *QualityError) Unwrap() error {
	return ErrFatalDataQuality
}

// SeriesError wraps a failure with the batch position of the series.
type SeriesError struct {
	Index int
	ID    string
	Err   error
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("series %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e *SeriesError) Unwrap() error {
	return e.Err
}
