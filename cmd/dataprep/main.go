// Command dataprep regenerates the per-project forecasting tables from the
// raw commit metric exports: one cleaned biweekly, monthly and complete
// table per project under the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tdxcli/internal/config"
	"tdxcli/internal/dataprep"
	"tdxcli/internal/infrastructure"
)

func main() {
	dataBase := flag.String("data", "", "base directory holding data/ and logs/ (defaults to the executable directory)")
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

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("dataprep.log"),
			},
		}
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("dataprep.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.ContextWithRunID(ctx)

	logger.InfoContext(ctx, "Starting data preparation",
		slog.String("raw_dir", paths.RawDir),
		slog.String("data_dir", paths.DataDir))

	if err := dataprep.Prepare(ctx, paths); err != nil {
		logger.ErrorContext(ctx, "Data preparation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Data preparation completed")
	fmt.Printf("Project tables written under %s\n", paths.DataDir)
}
