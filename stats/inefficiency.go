package stats

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroVariance is returned when a correlation time is requested for a
// constant sample.
var ErrZeroVariance = errors.New("stats: sample variance is zero")

// InefficiencyOptions controls the statistical inefficiency and equilibration
// estimators.
type InefficiencyOptions struct {
	// MinTime is the lag below which a non-positive correlation does not
	// stop the integration (default: 3).
	MinTime int
	// Fast grows the lag increment by one after every step, trading accuracy
	// for an O(N^1.5) scan.
	Fast bool
	// Skip is the stride between candidate equilibration starts (default: 1).
	Skip int
}

// DefaultInefficiencyOptions returns the options used when none are given.
func DefaultInefficiencyOptions() InefficiencyOptions {
	return InefficiencyOptions{
		MinTime: 3,
		Fast:    true,
		Skip:    1,
	}
}

// StatisticalInefficiency estimates g = 1 + 2*tau, where tau is the
// integrated autocorrelation time of values. The integral is truncated at the
// first non-positive normalized fluctuation correlation past MinTime. The
// result is never below 1.
func StatisticalInefficiency(values []float64, opts InefficiencyOptions) (float64, error) {
	n := len(values)
	if n < 2 {
		return 0, errors.New("stats: statistical inefficiency needs at least 2 samples")
	}

	if isConstant(values) {
		return 0, ErrZeroVariance
	}
	mean, sigma2 := stat.PopMeanVariance(values, nil)

	d := make([]float64, n)
	copy(d, values)
	floats.AddConst(-mean, d)

	g := 1.0
	increment := 1
	for t := 1; t < n-1; t += increment {
		c := floats.Dot(d[:n-t], d[t:]) / (float64(n-t) * sigma2)
		if c <= 0 && t > opts.MinTime {
			break
		}
		g += 2 * c * (1 - float64(t)/float64(n)) * float64(increment)
		if opts.Fast {
			increment++
		}
	}

	if g < 1 {
		g = 1
	}
	return g, nil
}

// Equilibration is the outcome of DetectEquilibration.
type Equilibration struct {
	Start                   int     // first sample of the equilibrated region
	StatisticalInefficiency float64 // g of the region starting at Start
	EffectiveSamples        float64 // (N - Start) / g
}

// DetectEquilibration picks the start index t that maximizes the number of
// uncorrelated samples (N-t)/g_t in values[t:]. Candidates are visited every
// opts.Skip samples and the earliest maximum wins. A constant series is
// reported as equilibrated from the first sample with g = 1 and a single
// effective sample.
func DetectEquilibration(values []float64, opts InefficiencyOptions) (Equilibration, error) {
	n := len(values)
	if n < 2 {
		return Equilibration{}, errors.New("stats: equilibration detection needs at least 2 samples")
	}
	if isConstant(values) {
		return Equilibration{Start: 0, StatisticalInefficiency: 1, EffectiveSamples: 1}, nil
	}

	skip := opts.Skip
	if skip < 1 {
		skip = 1
	}

	best := Equilibration{EffectiveSamples: -1}
	for t := 0; t < n-1; t += skip {
		remaining := float64(n - t)
		g, err := StatisticalInefficiency(values[t:], opts)
		if err != nil {
			// A constant tail carries no information beyond its count.
			g = remaining
		}
		if neff := remaining / g; neff > best.EffectiveSamples {
			best = Equilibration{Start: t, StatisticalInefficiency: g, EffectiveSamples: neff}
		}
	}

	return best, nil
}

// isConstant reports whether every sample equals the first. Rounding in the
// mean makes a variance test unreliable for this.
func isConstant(values []float64) bool {
	return floats.Min(values) == floats.Max(values)
}
