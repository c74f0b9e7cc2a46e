package convergence

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sartorproj/goconverge/stats"
	"github.com/sartorproj/goconverge/timeseries"
)

// Equilibration is what an equilibration detector reports for a series.
type Equilibration struct {
	CutIndex                int // samples before CutIndex are burn-in
	StatisticalInefficiency float64
	EffectiveSamples        float64
}

// Equilibrator detects the equilibrated region of a series. Implementations
// must not modify values.
type Equilibrator interface {
	Equilibrate(values []float64) (Equilibration, error)
}

// EquilibratorFunc adapts a function to the Equilibrator interface.
type EquilibratorFunc func(values []float64) (Equilibration, error)

// Equilibrate calls f(values).
func (f EquilibratorFunc) Equilibrate(values []float64) (Equilibration, error) {
	return f(values)
}

// DefaultEquilibrator wraps stats.DetectEquilibration.
func DefaultEquilibrator(opts stats.InefficiencyOptions) Equilibrator {
	return EquilibratorFunc(func(values []float64) (Equilibration, error) {
		eq, err := stats.DetectEquilibration(values, opts)
		if err != nil {
			return Equilibration{}, err
		}
		return Equilibration{
			CutIndex:                eq.Start,
			StatisticalInefficiency: eq.StatisticalInefficiency,
			EffectiveSamples:        eq.EffectiveSamples,
		}, nil
	})
}

// Reason explains why a verdict failed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInsufficientRetainedFraction
	ReasonInsufficientEffectiveSamples
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficientRetainedFraction:
		return "insufficient retained fraction"
	case ReasonInsufficientEffectiveSamples:
		return "insufficient effective samples"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reason) UnmarshalText(text []byte) error {
	for _, c := range []Reason{ReasonNone, ReasonInsufficientRetainedFraction, ReasonInsufficientEffectiveSamples} {
		if c.String() == string(text) {
			*r = c
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", text)
}

// Verdict is the outcome of Assess.
type Verdict struct {
	CutIndex                int
	StatisticalInefficiency float64
	EffectiveSamples        float64
	RetainedFraction        float64 // (N - CutIndex) / N
	Passed                  bool
	Reason                  Reason
}

// AssessOptions configures Assess.
type AssessOptions struct {
	MinRetainedFraction float64
	MinEffectiveSamples float64
	// FailOnBadSeries turns a failing verdict into a *QualityError.
	FailOnBadSeries bool
	// Logger receives the warning for a failing verdict. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Assess runs the equilibrator once on series and gates the result. The
// retained-fraction check precedes the effective-sample check, and only the
// first failing check is reported.
func Assess(series *timeseries.Series, eq Equilibrator, opts AssessOptions) (Verdict, error) {
	n := series.Len()
	if n == 0 {
		return Verdict{}, domainErrorf("series is empty")
	}
	if eq == nil {
		return Verdict{}, domainErrorf("no equilibrator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := eq.Equilibrate(series.Values)
	if err != nil {
		return Verdict{}, err
	}
	if res.CutIndex < 0 || res.CutIndex > n {
		return Verdict{}, domainErrorf("equilibration cut index %d outside [0, %d]", res.CutIndex, n)
	}
	if math.IsNaN(res.EffectiveSamples) || res.EffectiveSamples < 0 {
		return Verdict{}, domainErrorf("effective sample count %v is invalid", res.EffectiveSamples)
	}

	v := Verdict{
		CutIndex:                res.CutIndex,
		StatisticalInefficiency: res.StatisticalInefficiency,
		EffectiveSamples:        res.EffectiveSamples,
		RetainedFraction:        float64(n-res.CutIndex) / float64(n),
		Passed:                  true,
	}

	switch {
	case v.RetainedFraction < opts.MinRetainedFraction:
		v.Passed = false
		v.Reason = ReasonInsufficientRetainedFraction
	case v.EffectiveSamples < opts.MinEffectiveSamples:
		v.Passed = false
		v.Reason = ReasonInsufficientEffectiveSamples
	}

	if v.Passed {
		return v, nil
	}
	if opts.FailOnBadSeries {
		return Verdict{}, &QualityError{Verdict: v}
	}

	switch v.Reason {
	case ReasonInsufficientRetainedFraction:
		logger.Warn("equilibrated region is a small part of the series, usually a sign the sample is not equilibrated",
			slog.Float64("retained_percent", 100*v.RetainedFraction),
			slog.Float64("min_retained_percent", 100*opts.MinRetainedFraction),
			slog.Int("cut_index", v.CutIndex))
	case ReasonInsufficientEffectiveSamples:
		logger.Warn("too few effective samples in the equilibrated region",
			slog.Int("effective_samples", int(v.EffectiveSamples)),
			slog.Float64("min_effective_samples", opts.MinEffectiveSamples))
	}
	return v, nil
}
