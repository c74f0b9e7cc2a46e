package convergence

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goconverge/stats"
	"github.com/sartorproj/goconverge/timeseries"
)

// stubEquilibrator returns a fixed result and counts its calls.
type stubEquilibrator struct {
	result Equilibration
	err    error
	calls  int
}

func (s *stubEquilibrator) Equilibrate(values []float64) (Equilibration, error) {
	s.calls++
	return s.result, s.err
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestAssessRetainedFractionFailsFirst(t *testing.T) {
	logger, buf := captureLogger()
	opts := AssessOptions{MinRetainedFraction: 0.3, MinEffectiveSamples: 5, Logger: logger}

	for _, neff := range []float64{0, 1000} {
		eq := &stubEquilibrator{result: Equilibration{CutIndex: 8, StatisticalInefficiency: 1, EffectiveSamples: neff}}

		v, err := Assess(ramp(10), eq, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, eq.calls)
		assert.False(t, v.Passed)
		assert.Equal(t, ReasonInsufficientRetainedFraction, v.Reason)
		assert.InDelta(t, 0.2, v.RetainedFraction, 1e-12)
		assert.Equal(t, 8, v.CutIndex)
		assert.Equal(t, neff, v.EffectiveSamples)
	}

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "level=WARN"))
	assert.Contains(t, out, "cut_index=8")
}

func TestAssessEffectiveSamples(t *testing.T) {
	logger, buf := captureLogger()
	eq := &stubEquilibrator{result: Equilibration{CutIndex: 2, StatisticalInefficiency: 4, EffectiveSamples: 2}}

	v, err := Assess(ramp(10), eq, AssessOptions{MinRetainedFraction: 0.3, MinEffectiveSamples: 5, Logger: logger})
	require.NoError(t, err)
	assert.False(t, v.Passed)
	assert.Equal(t, ReasonInsufficientEffectiveSamples, v.Reason)
	assert.Equal(t, 4.0, v.StatisticalInefficiency)
	assert.Contains(t, buf.String(), "effective_samples=2")
}

func TestAssessPasses(t *testing.T) {
	logger, buf := captureLogger()

	// Boundaries are inclusive: equal to the minimum passes.
	eq := &stubEquilibrator{result: Equilibration{CutIndex: 7, StatisticalInefficiency: 1, EffectiveSamples: 3}}
	v, err := Assess(ramp(10), eq, AssessOptions{MinRetainedFraction: 0.3, MinEffectiveSamples: 3, Logger: logger})
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Equal(t, ReasonNone, v.Reason)
	assert.Empty(t, buf.String())
}

func TestAssessFailOnBadSeries(t *testing.T) {
	logger, buf := captureLogger()
	eq := &stubEquilibrator{result: Equilibration{CutIndex: 9, StatisticalInefficiency: 1, EffectiveSamples: 1}}

	_, err := Assess(ramp(10), eq, AssessOptions{
		MinRetainedFraction: 0.3,
		MinEffectiveSamples: 5,
		FailOnBadSeries:     true,
		Logger:              logger,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatalDataQuality)

	var qe *QualityError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, ReasonInsufficientRetainedFraction, qe.Verdict.Reason)
	assert.Contains(t, err.Error(), "insufficient retained fraction")
	assert.Empty(t, buf.String(), "fail-fast reports through the error, not the log")
}

func TestAssessDomain(t *testing.T) {
	tests := []struct {
		name   string
		result Equilibration
	}{
		{"cut past end", Equilibration{CutIndex: 11, EffectiveSamples: 1}},
		{"negative cut", Equilibration{CutIndex: -1, EffectiveSamples: 1}},
		{"negative neff", Equilibration{CutIndex: 0, EffectiveSamples: -1}},
		{"nan neff", Equilibration{CutIndex: 0, EffectiveSamples: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assess(ramp(10), &stubEquilibrator{result: tt.result}, AssessOptions{})
			assert.ErrorIs(t, err, ErrDomain)
		})
	}

	_, err := Assess(timeseries.New(nil), &stubEquilibrator{}, AssessOptions{})
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Assess(ramp(10), nil, AssessOptions{})
	assert.ErrorIs(t, err, ErrDomain)
}

func TestAssessCutAtEnd(t *testing.T) {
	eq := &stubEquilibrator{result: Equilibration{CutIndex: 10, EffectiveSamples: 0}}
	v, err := Assess(ramp(10), eq, AssessOptions{MinRetainedFraction: 0.1, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	assert.Zero(t, v.RetainedFraction)
	assert.Equal(t, ReasonInsufficientRetainedFraction, v.Reason)
}

func TestAssessPropagatesEquilibratorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Assess(ramp(10), &stubEquilibrator{err: boom}, AssessOptions{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDomain)
}

func TestAssessDefaultEquilibrator(t *testing.T) {
	// Burn-in drifting down to a stationary AR(1) process.
	s := correlated(600, 0.3, 8)
	for i := 0; i < 60; i++ {
		s.Values[i] += 20 * float64(60-i) / 60
	}

	v, err := Assess(s, DefaultEquilibrator(stats.DefaultInefficiencyOptions()),
		AssessOptions{MinRetainedFraction: 0.2, MinEffectiveSamples: 10})
	require.NoError(t, err)

	t.Logf("cut=%d g=%f neff=%f", v.CutIndex, v.StatisticalInefficiency, v.EffectiveSamples)
	assert.True(t, v.Passed)
	assert.Greater(t, v.CutIndex, 20)
	assert.Less(t, v.CutIndex, 200)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "none", ReasonNone.String())
	assert.Equal(t, "insufficient retained fraction", ReasonInsufficientRetainedFraction.String())
	assert.Equal(t, "insufficient effective samples", ReasonInsufficientEffectiveSamples.String())
	assert.Equal(t, "unknown", Reason(42).String())

	text, err := ReasonInsufficientEffectiveSamples.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "insufficient effective samples", string(text))

	var r Reason
	require.NoError(t, r.UnmarshalText(text))
	assert.Equal(t, ReasonInsufficientEffectiveSamples, r)
	assert.Error(t, r.UnmarshalText([]byte("unknown")))
}
