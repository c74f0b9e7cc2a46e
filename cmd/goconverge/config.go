package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goconverge/convergence"
	"github.com/sartorproj/goconverge/stats"
)

// fileConfig is the YAML configuration file. Omitted fields keep their
// defaults, so partial files are safe.
type fileConfig struct {
	Input         inputConfig         `yaml:"input"`
	Analysis      analysisConfig      `yaml:"analysis"`
	Equilibration equilibrationConfig `yaml:"equilibration"`
}

type inputConfig struct {
	Format     string   `yaml:"format"` // csv or xvg; empty picks by extension
	Columns    []string `yaml:"columns"`
	TimeColumn *string  `yaml:"time_column"`
}

type analysisConfig struct {
	PartialBlockCutoff     *float64 `yaml:"partial_block_cutoff"`
	MinSamplesPerBlock     *int     `yaml:"min_samples_per_block"`
	CorrelationThreshold   *float64 `yaml:"correlation_threshold"`
	MinRetainedFraction    *float64 `yaml:"min_retained_fraction"`
	MinEffectiveSamples    *float64 `yaml:"min_effective_samples"`
	FailOnBadSeries        *bool    `yaml:"fail_on_bad_series"`
	Workers                *int     `yaml:"workers"`
	RobustFirstFrameCutoff *float64 `yaml:"robust_first_frame_cutoff"`
}

type equilibrationConfig struct {
	MinTime *int  `yaml:"min_time"`
	Fast    *bool `yaml:"fast"`
	Skip    *int  `yaml:"skip"`
}

const defaultRobustFirstFrameCutoff = 0.75

// settings is the resolved configuration of one run.
type settings struct {
	input        inputConfig
	analysis     *convergence.Config
	inefficiency stats.InefficiencyOptions
	robustCutoff float64
}

func defaultSettings() *settings {
	return &settings{
		analysis:     convergence.DefaultConfig(),
		inefficiency: stats.DefaultInefficiencyOptions(),
		robustCutoff: defaultRobustFirstFrameCutoff,
	}
}

// loadConfig reads a YAML configuration file. Unknown keys are rejected.
func loadConfig(path string) (*fileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// apply copies the fields set in the file over s.
func (c *fileConfig) apply(s *settings) {
	if c.Input.Format != "" {
		s.input.Format = c.Input.Format
	}
	if len(c.Input.Columns) > 0 {
		s.input.Columns = c.Input.Columns
	}
	if c.Input.TimeColumn != nil {
		s.input.TimeColumn = c.Input.TimeColumn
	}

	a := c.Analysis
	setFloat(&s.analysis.PartialBlockCutoff, a.PartialBlockCutoff)
	setInt(&s.analysis.MinSamplesPerBlock, a.MinSamplesPerBlock)
	setFloat(&s.analysis.CorrelationThreshold, a.CorrelationThreshold)
	setFloat(&s.analysis.MinRetainedFraction, a.MinRetainedFraction)
	setFloat(&s.analysis.MinEffectiveSamples, a.MinEffectiveSamples)
	setBool(&s.analysis.FailOnBadSeries, a.FailOnBadSeries)
	setInt(&s.analysis.Workers, a.Workers)
	setFloat(&s.robustCutoff, a.RobustFirstFrameCutoff)

	e := c.Equilibration
	setInt(&s.inefficiency.MinTime, e.MinTime)
	setBool(&s.inefficiency.Fast, e.Fast)
	setInt(&s.inefficiency.Skip, e.Skip)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
