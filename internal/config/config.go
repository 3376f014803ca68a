package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete configuration shared by the tdx binaries
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ResultsDir    string `yaml:"results_dir" envconfig:"RESULTS_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// ForecastConfig contains the experiment parameters of the forecaster
type ForecastConfig struct {
	Seed            int64   `yaml:"seed" envconfig:"SEED"`
	TrainFraction   float64 `yaml:"train_fraction" envconfig:"TRAIN_FRACTION"`
	BootstrapDraws  int     `yaml:"bootstrap_draws" envconfig:"BOOTSTRAP_DRAWS"`
	MinObservations int     `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS"`
	MaxConcurrency  int     `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
	RunETS          bool    `yaml:"run_ets" envconfig:"RUN_ETS"`
	RunSARIMA       bool    `yaml:"run_sarima" envconfig:"RUN_SARIMA"`
}

// Load loads configuration from environment variables and the optional
// config.yaml next to the executable.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables merged over the
// given YAML file. Precedence: environment, then file, then defaults.
// Defaults are applied after the merge; struct-tag defaults would be
// filled in by envconfig before the merge and shadow every file value.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	// Environment variables carry only explicitly set values at this point.
	if err := envconfig.Process("TDX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// An env field at its zero value counts as unset; the two bool flags can't
// be told apart from false that way, so their env vars are probed directly.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Format == "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if envConfig.Logging.Output == "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Paths.ExecutableDir == "" {
		envConfig.Paths.ExecutableDir = fileConfig.Paths.ExecutableDir
	}
	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.ResultsDir == "" {
		envConfig.Paths.ResultsDir = fileConfig.Paths.ResultsDir
	}
	if envConfig.Paths.LogsDir == "" {
		envConfig.Paths.LogsDir = fileConfig.Paths.LogsDir
	}
	if envConfig.Forecast.Seed == 0 {
		envConfig.Forecast.Seed = fileConfig.Forecast.Seed
	}
	if envConfig.Forecast.TrainFraction == 0 {
		envConfig.Forecast.TrainFraction = fileConfig.Forecast.TrainFraction
	}
	if envConfig.Forecast.BootstrapDraws == 0 {
		envConfig.Forecast.BootstrapDraws = fileConfig.Forecast.BootstrapDraws
	}
	if envConfig.Forecast.MinObservations == 0 {
		envConfig.Forecast.MinObservations = fileConfig.Forecast.MinObservations
	}
	if envConfig.Forecast.MaxConcurrency == 0 {
		envConfig.Forecast.MaxConcurrency = fileConfig.Forecast.MaxConcurrency
	}
	if _, set := os.LookupEnv("TDX_FORECAST_RUN_ETS"); !set {
		envConfig.Forecast.RunETS = fileConfig.Forecast.RunETS
	}
	if _, set := os.LookupEnv("TDX_FORECAST_RUN_SARIMA"); !set {
		envConfig.Forecast.RunSARIMA = fileConfig.Forecast.RunSARIMA
	}

	return envConfig
}

// applyDefaults fills every field left unset by both env and file.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, "tdx.log")
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = DefaultDataDir
	}
	if c.Paths.ResultsDir == "" {
		c.Paths.ResultsDir = DefaultResultsDir
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = DefaultLogsDir
	}
	if c.Forecast.Seed == 0 {
		c.Forecast.Seed = DefaultSeed
	}
	if c.Forecast.TrainFraction == 0 {
		c.Forecast.TrainFraction = DefaultTrainFraction
	}
	if c.Forecast.BootstrapDraws == 0 {
		c.Forecast.BootstrapDraws = DefaultBootstrapDraws
	}
	if c.Forecast.MinObservations == 0 {
		c.Forecast.MinObservations = MinObservations
	}
	if c.Forecast.MaxConcurrency == 0 {
		c.Forecast.MaxConcurrency = 4
	}
}

// getConfigFilePath returns the path of the optional config.yaml next to
// the executable, falling back to the working directory during development.
func getConfigFilePath() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "config.yaml"
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Forecast.TrainFraction <= 0 || c.Forecast.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be in (0, 1): %f", c.Forecast.TrainFraction)
	}

	if c.Forecast.BootstrapDraws < 0 {
		return fmt.Errorf("bootstrap draws must be non-negative: %d", c.Forecast.BootstrapDraws)
	}

	if c.Forecast.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1: %d", c.Forecast.MaxConcurrency)
	}

	if c.Forecast.MinObservations < 10 {
		return fmt.Errorf("min observations must be at least 10: %d", c.Forecast.MinObservations)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("log format must be json or text: %s", c.Logging.Format)
	}

	return nil
}
