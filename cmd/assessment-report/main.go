// Command assessment-report merges the per-periodicity assessment CSVs
// produced by the forecaster into a single XLSX workbook, one sheet per
// model family and periodicity.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tdxcli/internal/config"
	"tdxcli/internal/experiment"
	"tdxcli/internal/exporter"
	"tdxcli/internal/infrastructure"
)

func main() {
	dataBase := flag.String("data", "", "base directory holding data/ and logs/ (defaults to the executable directory)")
	out := flag.String("out", "", "output workbook path (defaults to <results>/assessment_summary.xlsx)")
	flag.Parse()

	var paths *config.Paths
	var err error
	if *dataBase != "" {
		paths = config.PathsForBase(*dataBase)
	} else {
		paths, err = config.GetPaths()
		if err != nil {
			slog.Error("Failed to initialize paths", "error", err)
			os.Exit(1)
		}
	}

	if *out == "" {
		*out = filepath.Join(paths.ResultsDir, "assessment_summary.xlsx")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "console",
			},
		}
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("assessment-report.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	sheets := collectSheets(paths)
	if len(sheets) == 0 {
		logger.Error("No assessment tables found", slog.String("results_dir", paths.ResultsDir))
		os.Exit(1)
	}

	if err := exporter.WriteSummaryWorkbook(*out, sheets); err != nil {
		logger.Error("Failed to write summary workbook",
			slog.String("path", *out),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Summary workbook written",
		slog.Int("sheets", len(sheets)),
		slog.String("path", *out))
	fmt.Printf("Assessment summary written to %s\n", *out)
}

// collectSheets loads every existing assessment table in a stable order.
func collectSheets(paths *config.Paths) []exporter.SummarySheet {
	models := []struct {
		label string
		dir   string
	}{
		{"DLT", config.DLTResultDir},
		{"ETS", config.ETSResultDir},
		{"SARIMA", config.SARIMAResultDir},
	}

	var sheets []exporter.SummarySheet
	for _, model := range models {
		for _, p := range experiment.Periodicities() {
			path := paths.AssessmentPath(model.dir, p.Name)
			if !config.FileExists(path) {
				continue
			}
			headers, records, err := exporter.ReadAll(path)
			if err != nil {
				slog.Warn("Skipping unreadable assessment table",
					slog.String("path", path),
					slog.String("error", err.Error()))
				continue
			}
			sheets = append(sheets, exporter.SummarySheet{
				Name:    fmt.Sprintf("%s %s", model.label, p.Name),
				Headers: headers,
				Records: records,
			})
		}
	}
	return sheets
}
