// Command forecaster runs the technical-debt forecasting experiment: for
// every project table under the biweekly, monthly and complete data
// directories it grid-searches DLT hyperparameters on an 80/20 split and
// appends the held-out accuracy of the best configuration to the
// per-periodicity assessment tables.
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
	"tdxcli/internal/experiment"
	"tdxcli/internal/infrastructure"
)

func main() {
	dataBase := flag.String("data", "", "base directory holding data/ and logs/ (defaults to the executable directory)")
	runETS := flag.Bool("ets", false, "also fit the ETS model for each project")
	runSARIMA := flag.Bool("sarima", false, "also fit the SARIMA related-work baseline")
	flag.Parse()

	paths, err := resolvePaths(*dataBase)
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = defaultConfig(paths)
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("forecaster.log")
	}
	if *runETS {
		cfg.Forecast.RunETS = true
	}
	if *runSARIMA {
		cfg.Forecast.RunSARIMA = true
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

	logger.InfoContext(ctx, "Starting forecasting sweep",
		slog.String("data_dir", paths.DataDir),
		slog.String("results_dir", paths.ResultsDir),
		slog.Int64("seed", cfg.Forecast.Seed),
		slog.Bool("ets", cfg.Forecast.RunETS),
		slog.Bool("sarima", cfg.Forecast.RunSARIMA),
	)

	runner := experiment.NewRunner(cfg, paths)
	if err := runner.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "Forecasting sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Forecasting sweep completed",
		slog.String("results_dir", paths.ResultsDir))
	fmt.Printf("Forecasting sweep complete, results in %s\n", paths.ResultsDir)
}

func resolvePaths(base string) (*config.Paths, error) {
	if base != "" {
		return config.PathsForBase(base), nil
	}
	return config.GetPaths()
}

func defaultConfig(paths *config.Paths) *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: paths.GetLogPath("forecaster.log"),
		},
		Forecast: config.ForecastConfig{
			Seed:            config.DefaultSeed,
			TrainFraction:   config.DefaultTrainFraction,
			BootstrapDraws:  config.DefaultBootstrapDraws,
			MinObservations: config.MinObservations,
			MaxConcurrency:  4,
		},
	}
}
