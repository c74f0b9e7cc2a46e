// Package timeseries provides the Series type and loaders for sampled
// simulation observables.
//
// A Series is an ordered run of float64 samples taken at a fixed interval,
// optionally labelled and optionally carrying the simulation time of each
// sample. The analysis packages never modify a Series they are given.
//
// # Creating a Series
//
//	series := timeseries.NewNamed("rmsd", values)
//
// # Loading from CSV
//
// Every value column becomes one series, named after its header:
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumns = []string{"energy", "volume"}
//	batch, err := timeseries.LoadCSV("run.csv", opts)
//
// Rows with a missing value (empty, NA, NaN, null) in any selected column
// are dropped from every series so that sample i lines up across columns.
//
// # Loading GROMACS output
//
// XVG files carry the time in the first column; "@ sN legend" metadata
// names the data columns:
//
//	batch, err := timeseries.LoadXVG("dist.xvg")
//
// # Slicing
//
//	production := series.Slice(cut, series.Len())
package timeseries
