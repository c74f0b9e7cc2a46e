// Package timeseries provides the sampled-observable container used by the
// convergence analyses.
package timeseries

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmpty is returned when a series or input file holds no samples.
	ErrEmpty = errors.New("timeseries: no samples")

	// ErrNonFinite is returned by Validate when a sample is NaN or infinite.
	ErrNonFinite = errors.New("timeseries: non-finite sample")
)

// Series is a scalar observable sampled at fixed intervals.
// Analyses treat a Series as read-only.
type Series struct {
	Values []float64
	Times  []float64 // optional simulation time of each sample
	Name   string
}

// New creates a series from values. The slice is not copied.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewNamed creates a labelled series from values.
func NewNamed(name string, values []float64) *Series {
	return &Series{Values: values, Name: name}
}

// NewWithTimes creates a series with an explicit time for every sample.
func NewWithTimes(times, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, errors.New("times and values must have the same length")
	}
	return &Series{Times: times, Values: values}, nil
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance returns the unbiased sample variance.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std returns the sample standard deviation.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Validate reports whether the series is non-empty and every sample finite.
func (s *Series) Validate() error {
	if len(s.Values) == 0 {
		return ErrEmpty
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Slice returns a copy of samples start..end (exclusive). Out-of-range
// bounds are clamped.
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	var times []float64
	if len(s.Times) >= end {
		times = make([]float64, end-start)
		copy(times, s.Times[start:end])
	}

	return &Series{
		Values: values,
		Times:  times,
		Name:   s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	var times []float64
	if s.Times != nil {
		times = make([]float64, len(s.Times))
		copy(times, s.Times)
	}

	return &Series{
		Values: values,
		Times:  times,
		Name:   s.Name,
	}
}
