package convergence

import (
	"context"
	"log/slog"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goconverge/timeseries"
)

// SeriesResult holds the diagnostics of one series in a batch.
type SeriesResult struct {
	ID            string
	Length        int
	Decorrelation Decorrelation
	Verdict       Verdict
}

func (r SeriesResult) clone() SeriesResult {
	r.Decorrelation.Profile = slices.Clone(r.Decorrelation.Profile)
	r.Decorrelation.Autocorrelation = slices.Clone(r.Decorrelation.Autocorrelation)
	return r
}

// Report is the complete, read-only result of AnalyzeBatch. Accessors
// return copies; results keep the order of the input series.
type Report struct {
	results []SeriesResult
	series  []*timeseries.Series
}

// Len returns the number of series in the report.
func (r *Report) Len() int {
	return len(r.results)
}

// Result returns the diagnostics of the i-th series.
func (r *Report) Result(i int) SeriesResult {
	return r.results[i].clone()
}

// Results returns the diagnostics of every series.
func (r *Report) Results() []SeriesResult {
	out := make([]SeriesResult, len(r.results))
	for i, res := range r.results {
		out[i] = res.clone()
	}
	return out
}

// IDs returns the series identifiers.
func (r *Report) IDs() []string {
	ids := make([]string, len(r.results))
	for i, res := range r.results {
		ids[i] = res.ID
	}
	return ids
}

// Profiles returns the block-averaging profile of every series.
func (r *Report) Profiles() []Profile {
	profiles := make([]Profile, len(r.results))
	for i, res := range r.results {
		profiles[i] = slices.Clone(res.Decorrelation.Profile)
	}
	return profiles
}

// CutIndices returns the equilibration cut index of every series.
func (r *Report) CutIndices() []int {
	cuts := make([]int, len(r.results))
	for i, res := range r.results {
		cuts[i] = res.Verdict.CutIndex
	}
	return cuts
}

// EffectiveSamples returns the effective sample count of every series.
func (r *Report) EffectiveSamples() []float64 {
	neff := make([]float64, len(r.results))
	for i, res := range r.results {
		neff[i] = res.Verdict.EffectiveSamples
	}
	return neff
}

// RetainedFractions returns the retained fraction of every series.
func (r *Report) RetainedFractions() []float64 {
	fractions := make([]float64, len(r.results))
	for i, res := range r.results {
		fractions[i] = res.Verdict.RetainedFraction
	}
	return fractions
}

// PassedCount returns the number of series whose verdict passed.
func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.results {
		if res.Verdict.Passed {
			n++
		}
	}
	return n
}

// RobustFirstFrame returns the mean cut index over the series whose retained
// fraction is strictly greater than cutoff.
func (r *Report) RobustFirstFrame(cutoff float64) (float64, error) {
	sum, n := 0, 0
	for _, res := range r.results {
		if res.Verdict.RetainedFraction > cutoff {
			sum += res.Verdict.CutIndex
			n++
		}
	}
	if n == 0 {
		return 0, domainErrorf("no series retains more than %v of its samples", cutoff)
	}
	return float64(sum) / float64(n), nil
}

// AverageProfile returns the per-block-size mean of the series profiles.
func (r *Report) AverageProfile() Profile {
	return AverageProfiles(r.Profiles())
}

// Equilibrated returns a copy of the i-th series from its cut index on.
func (r *Report) Equilibrated(i int) *timeseries.Series {
	s := r.series[i]
	return s.Slice(r.results[i].Verdict.CutIndex, s.Len())
}

// AnalyzeBatch runs Scan and Assess on every series. Identifiers, when not
// nil, must match the series one to one; otherwise series names are used,
// falling back to the position. Any error aborts the batch and no report is
// returned; failing verdicts are errors only with cfg.FailOnBadSeries.
func AnalyzeBatch(ctx context.Context, series []*timeseries.Series, identifiers []string, cfg *Config) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if identifiers != nil && len(identifiers) != len(series) {
		return nil, domainErrorf("got %d identifiers for %d series", len(identifiers), len(series))
	}
	for i, s := range series {
		if s == nil {
			return nil, domainErrorf("series %d is nil", i)
		}
	}

	ids := make([]string, len(series))
	for i, s := range series {
		switch {
		case identifiers != nil:
			ids[i] = identifiers[i]
		case s.Name != "":
			ids[i] = s.Name
		default:
			ids[i] = strconv.Itoa(i)
		}
	}

	logger := cfg.logger()
	eq := cfg.equilibrator()
	workers := max(cfg.Workers, 1)

	results := make([]SeriesResult, len(series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := analyzeSeries(s, ids[i], eq, cfg, logger.With(slog.String("series", ids[i])))
			if err != nil {
				return &SeriesError{Index: i, ID: ids[i], Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("batch analyzed",
		slog.Int("series", len(results)),
		slog.Int("workers", workers))

	return &Report{
		results: results,
		series:  slices.Clone(series),
	}, nil
}

func analyzeSeries(s *timeseries.Series, id string, eq Equilibrator, cfg *Config, logger *slog.Logger) (SeriesResult, error) {
	dec, err := Scan(s, cfg.scanOptions(), cfg.Autocorrelator)
	if err != nil {
		return SeriesResult{}, err
	}
	verdict, err := Assess(s, eq, cfg.assessOptions(logger))
	if err != nil {
		return SeriesResult{}, err
	}

	logger.Debug("series analyzed",
		slog.Int("samples", s.Len()),
		slog.Int("max_block_size", dec.MaxBlockSize),
		slog.Bool("decorrelated", dec.Found),
		slog.Int("cut_index", verdict.CutIndex),
		slog.Bool("passed", verdict.Passed))

	return SeriesResult{
		ID:            id,
		Length:        s.Len(),
		Decorrelation: dec,
		Verdict:       verdict,
	}, nil
}
