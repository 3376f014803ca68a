// Package dataprep turns raw per-commit metric exports into the cleaned
// biweekly, monthly and complete tables the forecaster consumes. Buckets
// keep the last observation, since the SQALE index is a level metric: the
// debt at the end of a period is the debt carried into the next one.
package dataprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tdxcli/internal/config"
	"tdxcli/internal/infrastructure"
	"tdxcli/internal/timeseries"
)

// BucketFunc assigns an observation date to a resampling bucket key.
// Keys must sort chronologically when the input is chronological.
type BucketFunc func(time.Time) string

// BucketBiweekly groups dates into two-ISO-week buckets.
func BucketBiweekly(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, (week-1)/2)
}

// BucketMonthly groups dates by calendar month.
func BucketMonthly(t time.Time) string {
	return t.Format("2006-01")
}

// Resample keeps the last observation of each bucket. The frame must be
// sorted chronologically.
func Resample(frame *timeseries.Frame, bucket BucketFunc) *timeseries.Frame {
	out := &timeseries.Frame{
		Project:        frame.Project,
		RegressorNames: frame.RegressorNames,
		Regressors:     make([][]float64, len(frame.RegressorNames)),
	}

	lastKey := ""
	for i := 0; i < frame.Len(); i++ {
		key := bucket(frame.Dates[i])
		if key == lastKey && out.Len() > 0 {
			// Same bucket: overwrite the previous observation.
			last := out.Len() - 1
			out.Dates[last] = frame.Dates[i]
			out.Response[last] = frame.Response[i]
			for c := range out.Regressors {
				out.Regressors[c][last] = frame.Regressors[c][i]
			}
			continue
		}
		lastKey = key
		out.Dates = append(out.Dates, frame.Dates[i])
		out.Response = append(out.Response, frame.Response[i])
		for c := range out.Regressors {
			out.Regressors[c] = append(out.Regressors[c], frame.Regressors[c][i])
		}
	}

	return out
}

// Prepare processes every raw export under the raw directory and writes
// the three per-project tables. Existing tables are overwritten: dataprep
// is a full regeneration, not an incremental step.
func Prepare(ctx context.Context, paths *config.Paths) error {
	logger := infrastructure.LoggerWithContext(ctx)

	entries, err := os.ReadDir(paths.RawDir)
	if err != nil {
		return fmt.Errorf("read raw directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(paths.RawDir, e.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no raw exports found in %s", paths.RawDir)
	}

	logger.InfoContext(ctx, "preparing project tables", "projects", len(files))

	prepared := 0
	for _, file := range files {
		select {
		case <-ctx.Done():
			return fmt.Errorf("dataprep cancelled: %w", ctx.Err())
		default:
		}

		if err := prepareProject(ctx, file, paths); err != nil {
			logger.WarnContext(ctx, "raw export skipped",
				"file", filepath.Base(file),
				"error", err,
			)
			continue
		}
		prepared++
	}

	if prepared == 0 {
		return fmt.Errorf("no raw export could be prepared")
	}

	logger.InfoContext(ctx, "project tables prepared", "prepared", prepared, "skipped", len(files)-prepared)
	return nil
}

func prepareProject(ctx context.Context, file string, paths *config.Paths) error {
	logger := infrastructure.LoggerWithContext(ctx)

	frame, err := timeseries.LoadFrame(file)
	if err != nil {
		return fmt.Errorf("load raw export: %w", err)
	}
	frame.SortByDate()

	name := frame.Project + ".csv"

	tables := []struct {
		dir   string
		frame *timeseries.Frame
	}{
		{paths.BiweeklyDir, Resample(frame, BucketBiweekly)},
		{paths.MonthlyDir, Resample(frame, BucketMonthly)},
		{paths.CompleteDir, frame},
	}

	for _, t := range tables {
		if err := timeseries.WriteFrame(filepath.Join(t.dir, name), t.frame); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}

	logger.InfoContext(ctx, "project prepared",
		"project", frame.Project,
		"commits", frame.Len(),
		"biweekly", tables[0].frame.Len(),
		"monthly", tables[1].frame.Len(),
	)

	return nil
}
