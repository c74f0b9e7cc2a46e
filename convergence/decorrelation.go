package convergence

import (
	"math"

	"github.com/sartorproj/goconverge/stats"
	"github.com/sartorproj/goconverge/timeseries"
)

// Autocorrelator computes the normalized autocorrelation of values for lags
// 0..maxLag. Implementations must return maxLag+1 values, with lag 0 equal
// to 1, and must not modify values.
type Autocorrelator interface {
	Autocorrelate(values []float64, maxLag int) ([]float64, error)
}

// AutocorrelatorFunc adapts a function to the Autocorrelator interface.
type AutocorrelatorFunc func(values []float64, maxLag int) ([]float64, error)

// Autocorrelate calls f(values, maxLag).
func (f AutocorrelatorFunc) Autocorrelate(values []float64, maxLag int) ([]float64, error) {
	return f(values, maxLag)
}

// DefaultAutocorrelator is the biased-estimator ACF from the stats package.
var DefaultAutocorrelator Autocorrelator = AutocorrelatorFunc(stats.Autocorrelation)

// ScanOptions configures Scan.
type ScanOptions struct {
	// MinSamplesPerBlock bounds the largest block size to N/MinSamplesPerBlock
	// so every profiled block size leaves at least that many blocks.
	MinSamplesPerBlock int
	// CorrelationThreshold is the autocorrelation level at or below which
	// samples are taken as decorrelated.
	CorrelationThreshold float64
	// PartialBlockCutoff is passed through to BlockAverageProfile.
	PartialBlockCutoff float64
}

// Decorrelation is the result of Scan.
type Decorrelation struct {
	MaxBlockSize    int
	Profile         Profile   // block sizes 1..MaxBlockSize-1
	Autocorrelation []float64 // lags 0..MaxBlockSize
	Lag             int       // first lag with ACF <= threshold; valid when Found
	Found           bool
}

// MaxBlockSize returns round(n / minSamplesPerBlock), rounding halves away
// from zero.
func MaxBlockSize(n, minSamplesPerBlock int) (int, error) {
	if minSamplesPerBlock <= 0 {
		return 0, domainErrorf("minimum samples per block %d must be positive", minSamplesPerBlock)
	}
	return int(math.Round(float64(n) / float64(minSamplesPerBlock))), nil
}

// Scan profiles the block standard error up to the largest block size that
// keeps MinSamplesPerBlock blocks and reports the first lag at which the
// autocorrelation falls to the threshold. A series that never decorrelates
// is not an error; Found is false.
func Scan(series *timeseries.Series, opts ScanOptions, acf Autocorrelator) (Decorrelation, error) {
	if acf == nil {
		acf = DefaultAutocorrelator
	}

	maxBlock, err := MaxBlockSize(series.Len(), opts.MinSamplesPerBlock)
	if err != nil {
		return Decorrelation{}, err
	}
	if maxBlock < 2 {
		return Decorrelation{}, domainErrorf("series of %d samples with %d samples per block leaves no block size to profile (max block size %d)",
			series.Len(), opts.MinSamplesPerBlock, maxBlock)
	}

	profile, err := BlockAverageProfile(series, BlockSizeRange(1, maxBlock), opts.PartialBlockCutoff)
	if err != nil {
		return Decorrelation{}, err
	}

	seq, err := acf.Autocorrelate(series.Values, maxBlock)
	if err != nil {
		return Decorrelation{}, err
	}
	if len(seq) != maxBlock+1 {
		return Decorrelation{}, domainErrorf("autocorrelation returned %d lags, want %d", len(seq), maxBlock+1)
	}
	if math.Abs(seq[0]-1) > 1e-9 {
		return Decorrelation{}, domainErrorf("autocorrelation at lag 0 is %v, want 1", seq[0])
	}

	d := Decorrelation{
		MaxBlockSize:    maxBlock,
		Profile:         profile,
		Autocorrelation: seq,
	}
	d.Lag, d.Found = DecorrelationLag(seq, opts.CorrelationThreshold)
	return d, nil
}

// DecorrelationLag returns the smallest lag whose autocorrelation is at or
// below threshold. NaN never qualifies.
func DecorrelationLag(acf []float64, threshold float64) (int, bool) {
	for lag, v := range acf {
		if v <= threshold {
			return lag, true
		}
	}
	return 0, false
}
