package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goconverge/convergence"
	"github.com/sartorproj/goconverge/timeseries"
)

type rootOptions struct {
	configPath string
	verbose    bool
	format     string
	columns    []string
	timeColumn string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "goconverge",
		Short: "Check simulation time series for equilibration and error convergence",
		Long: `goconverge estimates the standard error of simulation observables by
block averaging, finds where their autocorrelation dies out, and checks
whether the equilibrated part of each series holds enough independent samples.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-series diagnostics")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "", "Input format: csv or xvg (default: by file extension)")
	rootCmd.PersistentFlags().StringSliceVar(&opts.columns, "columns", nil, "CSV value columns to analyze (default: all)")
	rootCmd.PersistentFlags().StringVar(&opts.timeColumn, "time-column", "time", "CSV column holding the sample time")

	rootCmd.AddCommand(newAnalyzeCmd(opts), newProfileCmd(opts))
	return rootCmd
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		failOnBad bool
		workers   int
		cutoff    float64
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze every series in a file as one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, logger, err := resolveSettings(cmd, root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-on-bad") {
				s.analysis.FailOnBadSeries = failOnBad
			}
			if cmd.Flags().Changed("workers") {
				s.analysis.Workers = workers
			}
			if cmd.Flags().Changed("cutoff") {
				s.robustCutoff = cutoff
			}

			batch, err := loadSeries(args[0], s.input)
			if err != nil {
				return err
			}
			logger.Info("loaded series", slog.String("file", args[0]), slog.Int("series", len(batch)))

			s.analysis.Logger = logger
			s.analysis.Equilibrator = convergence.DefaultEquilibrator(s.inefficiency)

			report, err := convergence.AnalyzeBatch(cmd.Context(), batch, nil, s.analysis)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), report, s.robustCutoff)
			}
			writeTable(cmd.OutOrStdout(), report, s.robustCutoff)
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnBad, "fail-on-bad", false, "Fail on the first series that does not pass the quality gate")
	cmd.Flags().IntVar(&workers, "workers", 1, "Series analyzed concurrently")
	cmd.Flags().Float64Var(&cutoff, "cutoff", defaultRobustFirstFrameCutoff, "Retained fraction a series must exceed to count toward the robust first frame")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write the report as JSON")
	return cmd
}

func newProfileCmd(root *rootOptions) *cobra.Command {
	var (
		column   string
		minBlock int
		maxBlock int
	)

	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Print the block standard error profile of one series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, logger, err := resolveSettings(cmd, root)
			if err != nil {
				return err
			}
			if column != "" {
				s.input.Columns = []string{column}
			}

			batch, err := loadSeries(args[0], s.input)
			if err != nil {
				return err
			}
			series := batch[0]
			if column == "" && len(batch) > 1 {
				logger.Info("profiling the first series only", slog.String("series", series.Name), slog.Int("available", len(batch)))
			}

			hi := maxBlock
			if hi <= 0 {
				if hi, err = convergence.MaxBlockSize(series.Len(), s.analysis.MinSamplesPerBlock); err != nil {
					return err
				}
				hi--
			}

			profile, err := convergence.BlockAverageProfile(series, convergence.BlockSizeRange(minBlock, hi+1), s.analysis.PartialBlockCutoff)
			if err != nil {
				return err
			}
			writeProfile(cmd.OutOrStdout(), series, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column to profile (default: first value column)")
	cmd.Flags().IntVar(&minBlock, "min-block", 1, "Smallest block size")
	cmd.Flags().IntVar(&maxBlock, "max-block", 0, "Largest block size (default: N/min_samples_per_block - 1)")
	return cmd
}

// resolveSettings merges defaults, the config file and persistent flags, and
// builds the run's logger.
func resolveSettings(cmd *cobra.Command, root *rootOptions) (*settings, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), root.verbose)

	s := defaultSettings()
	if root.configPath != "" {
		fc, err := loadConfig(root.configPath)
		if err != nil {
			return nil, nil, err
		}
		fc.apply(s)
		logger.Debug("config loaded", slog.String("path", root.configPath))
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		s.input.Format = root.format
	}
	if flags.Changed("columns") {
		s.input.Columns = root.columns
	}
	if flags.Changed("time-column") || s.input.TimeColumn == nil {
		s.input.TimeColumn = &root.timeColumn
	}

	if err := s.analysis.Validate(); err != nil {
		return nil, nil, err
	}
	return s, logger, nil
}

// newLogger writes text logs to a terminal and JSON lines otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func loadSeries(path string, in inputConfig) ([]*timeseries.Series, error) {
	format := strings.ToLower(in.Format)
	if format == "" {
		format = "csv"
		if strings.EqualFold(filepath.Ext(path), ".xvg") {
			format = "xvg"
		}
	}

	var (
		batch []*timeseries.Series
		err   error
	)
	switch format {
	case "xvg":
		batch, err = timeseries.LoadXVG(path)
		if err == nil && len(in.Columns) > 0 {
			batch, err = pickColumns(batch, in.Columns)
		}
	case "csv":
		opts := timeseries.DefaultCSVOptions()
		opts.ValueColumns = in.Columns
		if in.TimeColumn != nil {
			opts.TimeColumn = *in.TimeColumn
		}
		batch, err = timeseries.LoadCSV(path, opts)
	default:
		return nil, fmt.Errorf("unknown input format %q", in.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	for _, s := range batch {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Name, err)
		}
	}
	return batch, nil
}

func pickColumns(batch []*timeseries.Series, names []string) ([]*timeseries.Series, error) {
	picked := make([]*timeseries.Series, 0, len(names))
	for _, name := range names {
		found := false
		for _, s := range batch {
			if s.Name == name {
				picked = append(picked, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("series %q not found", name)
		}
	}
	return picked, nil
}
