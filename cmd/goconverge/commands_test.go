package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goconverge/convergence"
)

// writeCSV writes n rows of two AR(1) columns and returns the file path.
func writeCSV(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))

	var b strings.Builder
	b.WriteString("time,a,b\n")
	var x, y float64
	for i := 0; i < n; i++ {
		x = 0.3*x + rng.NormFloat64()
		y = 0.5*y + rng.NormFloat64()
		fmt.Fprintf(&b, "%d,%.6f,%.6f\n", i, x, y)
	}

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	path := writeCSV(t, 600)

	out, _, err := execute(t, "analyze", path, "--json", "--workers", "2")
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Series, 2)

	assert.Equal(t, "a", report.Series[0].ID)
	assert.Equal(t, "b", report.Series[1].ID)
	for _, s := range report.Series {
		assert.Equal(t, 600, s.Length)
		assert.Equal(t, 60, s.MaxBlockSize)
		assert.Len(t, s.Profile, 59)
		assert.GreaterOrEqual(t, s.CutIndex, 0)
		assert.Less(t, s.CutIndex, 600)
	}
	assert.Len(t, report.AverageProfile, 59)
	assert.Equal(t, defaultRobustFirstFrameCutoff, report.RobustCutoff)
	assert.Contains(t, out, `"reason": "`)
}

func TestAnalyzeTable(t *testing.T) {
	path := writeCSV(t, 300)

	out, _, err := execute(t, "analyze", path, "--columns", "b")
	require.NoError(t, err)

	assert.Contains(t, out, "DECORR LAG")
	assert.Contains(t, out, "of 1 series passed")
	assert.Contains(t, out, "Robust first frame:")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[1], "b "), "got %q", lines[1])
}

func TestAnalyzeFailOnBad(t *testing.T) {
	path := writeCSV(t, 300)
	cfg := writeFile(t, "strict.yaml", "analysis:\n  min_effective_samples: 1000000\n")

	_, _, err := execute(t, "analyze", path, "--config", cfg, "--fail-on-bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, convergence.ErrFatalDataQuality)

	// Without fail-fast the same run only warns.
	_, stderr, err := execute(t, "analyze", path, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=WARN")
}

func TestAnalyzeTooShort(t *testing.T) {
	path := writeCSV(t, 12)

	_, _, err := execute(t, "analyze", path)
	assert.ErrorIs(t, err, convergence.ErrDomain)
}

func TestAnalyzeXVG(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	var b strings.Builder
	b.WriteString("# produced by a test\n")
	b.WriteString("@    title \"Energies\"\n")
	b.WriteString("@ s0 legend \"Potential\"\n")
	b.WriteString("@ s1 legend \"Pressure\"\n")
	var x float64
	for i := 0; i < 400; i++ {
		x = 0.4*x + rng.NormFloat64()
		fmt.Fprintf(&b, "%d.0  %.5f  %.5f\n", i, x-100, rng.NormFloat64())
	}
	path := writeFile(t, "energy.xvg", b.String())

	out, _, err := execute(t, "analyze", path, "--columns", "Pressure", "--json")
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Series, 1)
	assert.Equal(t, "Pressure", report.Series[0].ID)
	assert.Equal(t, 400, report.Series[0].Length)

	_, _, err = execute(t, "analyze", path, "--columns", "Volume")
	assert.Error(t, err)
}

func TestAnalyzeUnknownFormat(t *testing.T) {
	path := writeCSV(t, 100)
	_, _, err := execute(t, "analyze", path, "--format", "parquet")
	assert.ErrorContains(t, err, "unknown input format")
}

func TestProfile(t *testing.T) {
	path := writeCSV(t, 200)

	out, _, err := execute(t, "profile", path, "--column", "b", "--max-block", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "b: N=200")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Summary, blank line, header, then block sizes 1 to 5.
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[3], "1 "))
	assert.True(t, strings.HasPrefix(lines[7], "5 "))

	out, _, err = execute(t, "profile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "a: N=200")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3+19)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
input:
  format: csv
  columns: [a]
  time_column: t
analysis:
  partial_block_cutoff: 0.25
  workers: 4
  robust_first_frame_cutoff: 0.5
equilibration:
  fast: false
`)

	fc, err := loadConfig(path)
	require.NoError(t, err)

	s := defaultSettings()
	fc.apply(s)

	assert.Equal(t, "csv", s.input.Format)
	assert.Equal(t, []string{"a"}, s.input.Columns)
	require.NotNil(t, s.input.TimeColumn)
	assert.Equal(t, "t", *s.input.TimeColumn)
	assert.Equal(t, 0.25, s.analysis.PartialBlockCutoff)
	assert.Equal(t, 4, s.analysis.Workers)
	assert.Equal(t, 0.5, s.robustCutoff)
	assert.False(t, s.inefficiency.Fast)

	// Untouched fields keep their defaults.
	def := convergence.DefaultConfig()
	assert.Equal(t, def.MinSamplesPerBlock, s.analysis.MinSamplesPerBlock)
	assert.Equal(t, def.MinRetainedFraction, s.analysis.MinRetainedFraction)
	assert.Equal(t, 3, s.inefficiency.MinTime)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(writeFile(t, "config.json", "{}"))
	assert.ErrorContains(t, err, "extension")

	_, err = loadConfig(writeFile(t, "typo.yaml", "analysis:\n  min_sample_per_block: 5\n"))
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	fc, err := loadConfig(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.NotNil(t, fc)
}

func TestInvalidConfigRejected(t *testing.T) {
	path := writeCSV(t, 100)
	cfg := writeFile(t, "bad.yaml", "analysis:\n  partial_block_cutoff: 3\n")

	_, _, err := execute(t, "analyze", path, "--config", cfg)
	assert.ErrorIs(t, err, convergence.ErrDomain)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false).Debug("hidden")
	newLogger(&buf, false).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	newLogger(&buf, true).Debug("detail")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
