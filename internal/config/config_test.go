package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultSeed), cfg.Forecast.Seed)
	assert.Equal(t, DefaultTrainFraction, cfg.Forecast.TrainFraction)
	assert.Equal(t, DefaultBootstrapDraws, cfg.Forecast.BootstrapDraws)
	assert.Equal(t, MinObservations, cfg.Forecast.MinObservations)
	assert.False(t, cfg.Forecast.RunETS)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultDataDir, cfg.Paths.DataDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TDX_FORECAST_SEED", "42")
	t.Setenv("TDX_FORECAST_RUN_ETS", "true")
	t.Setenv("TDX_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Forecast.Seed)
	assert.True(t, cfg.Forecast.RunETS)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  output: file
paths:
  data_dir: /srv/tdx/data
forecast:
  seed: 1234
  train_fraction: 0.7
  run_ets: true
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "file", cfg.Logging.Output)
	assert.Equal(t, "/srv/tdx/data", cfg.Paths.DataDir)
	assert.Equal(t, int64(1234), cfg.Forecast.Seed)
	assert.Equal(t, 0.7, cfg.Forecast.TrainFraction)
	assert.True(t, cfg.Forecast.RunETS)

	// Everything the file leaves out still gets its default.
	assert.Equal(t, DefaultBootstrapDraws, cfg.Forecast.BootstrapDraws)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvOverridesYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
forecast:
  seed: 1234
  train_fraction: 0.7
  run_ets: true
`)
	t.Setenv("TDX_FORECAST_SEED", "42")
	t.Setenv("TDX_FORECAST_RUN_ETS", "false")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Forecast.Seed)
	assert.False(t, cfg.Forecast.RunETS)
	// File value survives where the env var is unset.
	assert.Equal(t, 0.7, cfg.Forecast.TrainFraction)
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultSeed), cfg.Forecast.Seed)
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "forecast: [not a map")

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadTrainFraction(t *testing.T) {
	t.Setenv("TDX_FORECAST_TRAIN_FRACTION", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train fraction")
}

func TestLoadRejectsBadConcurrency(t *testing.T) {
	t.Setenv("TDX_FORECAST_MAX_CONCURRENCY", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsLowMinObservations(t *testing.T) {
	t.Setenv("TDX_FORECAST_MIN_OBSERVATIONS", "3")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("TDX_LOGGING_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log format")
}

func TestValidateAcceptsTextFormat(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Format: "text"},
		Forecast: ForecastConfig{
			TrainFraction:   0.8,
			MaxConcurrency:  1,
			MinObservations: 20,
		},
	}

	assert.NoError(t, cfg.validate())
}
