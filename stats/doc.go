// Package stats provides the correlation primitives behind the convergence
// diagnostics.
//
// # Autocorrelation
//
// Normalized autocorrelation for lags 0..maxLag, lag 0 being 1:
//
//	acf := stats.ACF(series, 50)
//
//	// Over raw values, with an error for empty input. A constant input
//	// yields NaN for every lag past 0.
//	acf, err := stats.Autocorrelation(series.Values, 50)
//
// # Statistical Inefficiency
//
// The statistical inefficiency g = 1 + 2*tau measures how many correlated
// samples are worth one independent sample:
//
//	g, err := stats.StatisticalInefficiency(series.Values, stats.DefaultInefficiencyOptions())
//	independent := float64(series.Len()) / g
//
// # Equilibration Detection
//
// DetectEquilibration chooses the burn-in cut that leaves the largest
// number of effective samples in the remainder:
//
//	eq, err := stats.DetectEquilibration(series.Values, stats.DefaultInefficiencyOptions())
//	production := series.Slice(eq.Start, series.Len())
//
// Reference: Chodera, J. D. (2016). A simple method for automated
// equilibration detection in molecular simulations. J. Chem. Theory
// Comput. 12, 1799-1805.
package stats
