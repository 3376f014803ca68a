package dataprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdxcli/internal/config"
	"tdxcli/internal/timeseries"
)

func TestBucketBiweekly(t *testing.T) {
	// ISO weeks 1 and 2 share a bucket, week 3 starts the next one.
	week1 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	week3 := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, BucketBiweekly(week1), BucketBiweekly(week2))
	assert.NotEqual(t, BucketBiweekly(week2), BucketBiweekly(week3))
}

func TestBucketMonthly(t *testing.T) {
	assert.Equal(t, "2024-02", BucketMonthly(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)))
	assert.NotEqual(t,
		BucketMonthly(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)),
		BucketMonthly(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestResampleKeepsLastObservationPerBucket(t *testing.T) {
	frame := &timeseries.Frame{
		Project: "sample",
		Dates: []time.Time{
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		},
		Response:       []float64{10, 20, 25, 30},
		RegressorNames: []string{"NCLOC"},
		Regressors:     [][]float64{{100, 200, 250, 300}},
	}

	monthly := Resample(frame, BucketMonthly)

	require.Equal(t, 2, monthly.Len())
	// January keeps its last commit.
	assert.Equal(t, 25.0, monthly.Response[0])
	assert.Equal(t, 250.0, monthly.Regressors[0][0])
	assert.Equal(t, 30.0, monthly.Response[1])
	assert.Equal(t, "sample", monthly.Project)
}

func TestResampleSingleBucket(t *testing.T) {
	frame := &timeseries.Frame{
		Dates: []time.Time{
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		Response: []float64{1, 2},
	}

	out := Resample(frame, BucketMonthly)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 2.0, out.Response[0])
}

func writeRawExport(t *testing.T, paths *config.Paths, project string, n int) {
	t.Helper()

	frame := &timeseries.Frame{Project: project}
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		frame.Dates = append(frame.Dates, start.AddDate(0, 0, 3*i))
		frame.Response = append(frame.Response, float64(1000+i))
	}
	require.NoError(t, timeseries.WriteFrame(filepath.Join(paths.RawDir, project+".csv"), frame))
}

func TestPrepareWritesAllPeriodicities(t *testing.T) {
	paths := config.PathsForBase(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	writeRawExport(t, paths, "alpha", 60)

	require.NoError(t, Prepare(context.Background(), paths))

	complete, err := timeseries.LoadFrame(filepath.Join(paths.CompleteDir, "alpha.csv"))
	require.NoError(t, err)
	assert.Equal(t, 60, complete.Len())

	monthly, err := timeseries.LoadFrame(filepath.Join(paths.MonthlyDir, "alpha.csv"))
	require.NoError(t, err)
	assert.Less(t, monthly.Len(), complete.Len())

	biweekly, err := timeseries.LoadFrame(filepath.Join(paths.BiweeklyDir, "alpha.csv"))
	require.NoError(t, err)
	assert.LessOrEqual(t, monthly.Len(), biweekly.Len())
	assert.LessOrEqual(t, biweekly.Len(), complete.Len())
}

func TestPrepareSortsUnorderedExports(t *testing.T) {
	paths := config.PathsForBase(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	// Commits written newest-first, as some exports arrive.
	var rows string
	for i := 9; i >= 0; i-- {
		rows += fmt.Sprintf("2023-%02d-01,%d\n", i+1, 100+i)
	}
	csv := "COMMIT_DATE,SQALE_INDEX\n" + rows
	require.NoError(t, writeFile(filepath.Join(paths.RawDir, "beta.csv"), csv))

	require.NoError(t, Prepare(context.Background(), paths))

	frame, err := timeseries.LoadFrame(filepath.Join(paths.CompleteDir, "beta.csv"))
	require.NoError(t, err)
	require.Equal(t, 10, frame.Len())
	for i := 1; i < frame.Len(); i++ {
		assert.True(t, frame.Dates[i-1].Before(frame.Dates[i]))
	}
}

func TestPrepareEmptyRawDir(t *testing.T) {
	paths := config.PathsForBase(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	assert.Error(t, Prepare(context.Background(), paths))
}

func TestPrepareSkipsBrokenExports(t *testing.T) {
	paths := config.PathsForBase(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	writeRawExport(t, paths, "alpha", 20)
	require.NoError(t, writeFile(filepath.Join(paths.RawDir, "broken.csv"), "garbage"))

	require.NoError(t, Prepare(context.Background(), paths))

	assert.True(t, config.FileExists(filepath.Join(paths.CompleteDir, "alpha.csv")))
	assert.False(t, config.FileExists(filepath.Join(paths.CompleteDir, "broken.csv")))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
