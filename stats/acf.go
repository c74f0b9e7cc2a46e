// Package stats provides the statistical primitives consumed by the
// convergence analyses.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goconverge/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag; lags at or beyond the series
// length have no overlapping pairs and are 0. Returns nil for an empty or
// constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	acf, err := Autocorrelation(series.Values, maxLag)
	if err != nil || (len(acf) > 1 && math.IsNaN(acf[1])) {
		return nil
	}
	return acf
}

// Autocorrelation returns the normalized autocovariance of values for lags
// 0..maxLag using the biased (1/N) estimator, so acf[0] is 1. A constant
// input has no defined correlation: lag 0 is 1 and every other lag is NaN.
func Autocorrelation(values []float64, maxLag int) ([]float64, error) {
	n := len(values)
	if n == 0 {
		return nil, timeseries.ErrEmpty
	}
	if maxLag < 0 {
		return nil, errors.New("stats: negative maxLag")
	}

	centered := make([]float64, n)
	copy(centered, values)
	floats.AddConst(-stat.Mean(values, nil), centered)

	acf := make([]float64, maxLag+1)
	acf[0] = 1

	if isConstant(values) {
		for k := 1; k <= maxLag; k++ {
			acf[k] = math.NaN()
		}
		return acf, nil
	}

	variance := floats.Dot(centered, centered)
	for k := 1; k <= maxLag && k < n; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / variance
	}

	return acf, nil
}
