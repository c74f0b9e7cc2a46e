// Package convergence decides whether simulation time series have
// equilibrated and how far their mean estimates can be trusted.
//
// The analyses build on each other, leaves first:
//
//   - BlockStandardError: standard error of the mean from block means
//   - BlockAverageProfile: the standard error over a range of block sizes
//   - Scan: profile plus autocorrelation, bounded so every block size keeps
//     a minimum number of blocks, and the lag at which samples decorrelate
//   - Assess: gates an equilibration detector's cut on the fraction of the
//     series retained and on the number of effective samples
//   - AnalyzeBatch: Scan and Assess over independent series, summarized
//     in a Report
//
// # Block Averaging
//
// The standard error of correlated samples is underestimated by the naive
// std/sqrt(N). Averaging contiguous blocks first and taking the standard
// error of the block means removes the bias once blocks are longer than the
// correlation time; the profile flattens there:
//
//	se, err := convergence.BlockStandardError(series, 50, 0.5)
//
//	profile, err := convergence.BlockAverageProfile(series,
//	    convergence.BlockSizeRange(1, 100), 0.5)
//
// Only full blocks contribute. The partial-block cutoff decides whether the
// trailing remainder is cut from the usable length (remainder/blockSize <
// cutoff); the block count is the number of full blocks either way.
//
// # Decorrelation
//
// Scan limits block sizes to round(N/MinSamplesPerBlock) so the tail of
// the profile is not judged on two or three blocks, and pairs the profile
// with the autocorrelation up to that size:
//
//	d, err := convergence.Scan(series, convergence.ScanOptions{
//	    MinSamplesPerBlock:   10,
//	    CorrelationThreshold: 0,
//	    PartialBlockCutoff:   0.5,
//	}, nil) // nil selects DefaultAutocorrelator
//	if d.Found {
//	    fmt.Printf("decorrelated after %d samples\n", d.Lag)
//	}
//
// A profile still rising at its last point means the series is too short
// for a converged error estimate.
//
// # Equilibration
//
// Assess calls an Equilibrator once and checks its cut. Any detector can be
// plugged in through EquilibratorFunc; DefaultEquilibrator uses
// stats.DetectEquilibration:
//
//	v, err := convergence.Assess(series,
//	    convergence.DefaultEquilibrator(stats.DefaultInefficiencyOptions()),
//	    convergence.AssessOptions{MinRetainedFraction: 0.2, MinEffectiveSamples: 10})
//	if !v.Passed {
//	    fmt.Println(v.Reason)
//	}
//
// A failing verdict is logged as a warning. With FailOnBadSeries it is
// returned as a *QualityError matching ErrFatalDataQuality instead.
//
// # Batches
//
//	report, err := convergence.AnalyzeBatch(ctx, windows, nil, convergence.DefaultConfig())
//	first, err := report.RobustFirstFrame(0.75)
//
// Invalid requests fail with errors matching ErrDomain and never return
// partial results.
package convergence
