package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the tdx tools
type Paths struct {
	ExecutableDir string
	DataDir       string
	ResultsDir    string
	LogsDir       string

	// Input directories, one table per project in each
	BiweeklyDir string
	MonthlyDir  string
	CompleteDir string

	// Raw commit-history exports consumed by dataprep
	RawDir string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are relative to the executable directory, never the current
// working directory, so the tools behave the same wherever they are invoked.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return pathsUnder(filepath.Dir(exe)), nil
}

// PathsForBase returns the path layout rooted at an explicit base directory.
// Used by tests and by the -data flag of the binaries.
func PathsForBase(baseDir string) *Paths {
	return pathsUnder(baseDir)
}

// pathsUnder builds the directory layout used by every tdx binary:
//
//	<base>/
//	  ├── data/
//	  │   ├── raw/              (per-project commit metric exports)
//	  │   ├── biweekly_data/    (resampled tables, one CSV per project)
//	  │   ├── monthly_data/
//	  │   ├── complete_data/
//	  │   └── results/
//	  │       ├── DLT_Result/{biweekly,monthly,complete}/assessment.csv
//	  │       ├── ETS_Result/...
//	  │       └── SARIMA_Result/...
//	  └── logs/
func pathsUnder(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ResultsDir:    filepath.Join(dataDir, "results"),
		LogsDir:       filepath.Join(baseDir, "logs"),
		BiweeklyDir:   filepath.Join(dataDir, BiweeklyDataDir),
		MonthlyDir:    filepath.Join(dataDir, MonthlyDataDir),
		CompleteDir:   filepath.Join(dataDir, CompleteDataDir),
		RawDir:        filepath.Join(dataDir, "raw"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ResultsDir,
		p.LogsDir,
		p.BiweeklyDir,
		p.MonthlyDir,
		p.CompleteDir,
		p.RawDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// PeriodicityDir returns the input directory holding the per-project tables
// for the given periodicity ("biweekly", "monthly" or "complete").
func (p *Paths) PeriodicityDir(periodicity string) string {
	switch periodicity {
	case "biweekly":
		return p.BiweeklyDir
	case "monthly":
		return p.MonthlyDir
	default:
		return p.CompleteDir
	}
}

// AssessmentPath returns the accuracy table for a model family and
// periodicity, e.g. <results>/DLT_Result/monthly/assessment.csv.
func (p *Paths) AssessmentPath(resultDir, periodicity string) string {
	return filepath.Join(p.ResultsDir, resultDir, periodicity, AssessmentFileName)
}

// GetLogPath returns a log file path under the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists. Stat failures other than not-exist
// count as absent so callers fall through to an open that surfaces the
// real error.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
