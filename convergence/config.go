package convergence

import (
	"log/slog"

	"github.com/sartorproj/goconverge/stats"
)

// Config holds configuration for batch analysis.
type Config struct {
	PartialBlockCutoff   float64 // Partial block cutoff fraction (default: 0.5)
	MinSamplesPerBlock   int     // Minimum blocks per profiled block size (default: 10)
	CorrelationThreshold float64 // ACF level marking decorrelation (default: 0)
	MinRetainedFraction  float64 // Minimum retained fraction after burn-in (default: 0.2)
	MinEffectiveSamples  float64 // Minimum effective samples (default: 10)
	FailOnBadSeries      bool    // Abort the batch on the first failing verdict
	Workers              int     // Series analyzed concurrently (default: 1)

	Autocorrelator Autocorrelator // Default: DefaultAutocorrelator
	Equilibrator   Equilibrator   // Default: DefaultEquilibrator(stats.DefaultInefficiencyOptions())
	Logger         *slog.Logger   // Default: slog.Default()
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() *Config {
	return &Config{
		PartialBlockCutoff:   0.5,
		MinSamplesPerBlock:   10,
		CorrelationThreshold: 0,
		MinRetainedFraction:  0.2,
		MinEffectiveSamples:  10,
		Workers:              1,
	}
}

// Validate reports the first structurally invalid setting.
func (c *Config) Validate() error {
	if !(c.PartialBlockCutoff >= 0 && c.PartialBlockCutoff <= 1) {
		return domainErrorf("partial block cutoff %v outside [0, 1]", c.PartialBlockCutoff)
	}
	if c.MinSamplesPerBlock <= 0 {
		return domainErrorf("minimum samples per block %d must be positive", c.MinSamplesPerBlock)
	}
	if c.Workers < 0 {
		return domainErrorf("workers %d must not be negative", c.Workers)
	}
	return nil
}

func (c *Config) scanOptions() ScanOptions {
	return ScanOptions{
		MinSamplesPerBlock:   c.MinSamplesPerBlock,
		CorrelationThreshold: c.CorrelationThreshold,
		PartialBlockCutoff:   c.PartialBlockCutoff,
	}
}

func (c *Config) assessOptions(logger *slog.Logger) AssessOptions {
	return AssessOptions{
		MinRetainedFraction: c.MinRetainedFraction,
		MinEffectiveSamples: c.MinEffectiveSamples,
		FailOnBadSeries:     c.FailOnBadSeries,
		Logger:              logger,
	}
}

func (c *Config) equilibrator() Equilibrator {
	if c.Equilibrator != nil {
		return c.Equilibrator
	}
	return DefaultEquilibrator(stats.DefaultInefficiencyOptions())
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
