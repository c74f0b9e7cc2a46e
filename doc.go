// Package goconverge checks whether simulation time series have equilibrated
// and whether their error estimates have converged.
//
// It estimates the standard error of an observable by block averaging, scans
// block sizes up to the point where the autocorrelation of the series dies
// out, and gates each series on how much of it survives the equilibration cut
// and how many statistically independent samples remain.
//
// # Quick Start
//
// Analyze a batch of series:
//
//	series, _ := timeseries.LoadCSV("energies.csv", timeseries.DefaultCSVOptions())
//	report, err := convergence.AnalyzeBatch(ctx, series, nil, convergence.DefaultConfig())
//	first, _ := report.RobustFirstFrame(0.75)
//
// Block standard error of one series:
//
//	se, _ := convergence.BlockStandardError(s, 50, 0.5)
//
// # Packages
//
//   - convergence: block averaging, decorrelation scans, equilibration verdicts and batches
//   - stats: autocorrelation, statistical inefficiency and equilibration detection
//   - timeseries: series type with CSV and XVG loaders
//
// The goconverge command in cmd/goconverge runs the batch analysis on files.
//
// # References
//
//   - Flyvbjerg, H., & Petersen, H. G. (1989). Error estimates on averages of correlated data
//   - Chodera, J. D. (2016). A simple method for automated equilibration detection in molecular simulations
package goconverge
