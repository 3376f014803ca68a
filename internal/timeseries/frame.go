// Package timeseries holds the per-project metric tables the forecaster
// consumes: a dated response column (the SQALE technical-debt index) plus
// any number of numeric regressor columns.
package timeseries

import (
	"errors"
	"math"
	"sort"
	"time"
)

// Frame is a cleaned per-project table. Regressor columns are stored
// column-major and aligned with Dates and Response.
type Frame struct {
	Project        string
	Dates          []time.Time
	Response       []float64
	RegressorNames []string
	Regressors     [][]float64 // Regressors[col][row]
}

// Len returns the number of observations in the frame.
func (f *Frame) Len() int {
	return len(f.Response)
}

// NumRegressors returns the number of regressor columns.
func (f *Frame) NumRegressors() int {
	return len(f.RegressorNames)
}

// RegressorRow returns the regressor values of a single observation.
func (f *Frame) RegressorRow(i int) []float64 {
	row := make([]float64, len(f.Regressors))
	for c := range f.Regressors {
		row[c] = f.Regressors[c][i]
	}
	return row
}

// Slice returns a copy of the frame restricted to rows [start, end).
func (f *Frame) Slice(start, end int) *Frame {
	if start < 0 {
		start = 0
	}
	if end > f.Len() {
		end = f.Len()
	}
	if start >= end {
		return &Frame{Project: f.Project, RegressorNames: f.RegressorNames}
	}

	out := &Frame{
		Project:        f.Project,
		Dates:          append([]time.Time(nil), f.Dates[start:end]...),
		Response:       append([]float64(nil), f.Response[start:end]...),
		RegressorNames: f.RegressorNames,
	}
	for _, col := range f.Regressors {
		out.Regressors = append(out.Regressors, append([]float64(nil), col[start:end]...))
	}
	return out
}

// Split divides the frame into training and testing frames. The split point
// is round(fraction * n), matching the 80/20 convention of the study.
func (f *Frame) Split(fraction float64) (train, test *Frame, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, errors.New("split fraction must be in (0, 1)")
	}
	n := f.Len()
	if n < 2 {
		return nil, nil, errors.New("frame too short to split")
	}

	splitPoint := int(math.Round(fraction * float64(n)))
	if splitPoint < 1 {
		splitPoint = 1
	}
	if splitPoint >= n {
		splitPoint = n - 1
	}

	return f.Slice(0, splitPoint), f.Slice(splitPoint, n), nil
}

// SortByDate reorders the frame rows chronologically in place. Raw commit
// exports are not guaranteed to arrive ordered.
func (f *Frame) SortByDate() {
	idx := make([]int, f.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return f.Dates[idx[a]].Before(f.Dates[idx[b]])
	})

	dates := make([]time.Time, f.Len())
	response := make([]float64, f.Len())
	regressors := make([][]float64, len(f.Regressors))
	for c := range regressors {
		regressors[c] = make([]float64, f.Len())
	}
	for newPos, oldPos := range idx {
		dates[newPos] = f.Dates[oldPos]
		response[newPos] = f.Response[oldPos]
		for c := range f.Regressors {
			regressors[c][newPos] = f.Regressors[c][oldPos]
		}
	}
	f.Dates = dates
	f.Response = response
	f.Regressors = regressors
}

// Mean returns the arithmetic mean of the response column.
func (f *Frame) Mean() float64 {
	if f.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range f.Response {
		sum += v
	}
	return sum / float64(f.Len())
}

// Std returns the sample standard deviation of the response column.
func (f *Frame) Std() float64 {
	n := f.Len()
	if n < 2 {
		return 0
	}
	mean := f.Mean()
	sumSq := 0.0
	for _, v := range f.Response {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}
