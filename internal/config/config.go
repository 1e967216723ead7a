// Package config loads the application configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for coinrich.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Upbit    Upbit          `yaml:"upbit"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Upbit holds the Upbit API endpoint and credentials. Quotation endpoints
// need no keys; they are reserved for account operations.
type Upbit struct {
	BaseURL   string `yaml:"base_url"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig controls candle backfilling.
type GatherConfig struct {
	Markets         []string `yaml:"markets"`
	Unit            int      `yaml:"unit"`
	StartDate       string   `yaml:"start_date"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	Archive         bool     `yaml:"archive"`
	AlpacaSymbols   []string `yaml:"alpaca_symbols"`
}

// BacktestConfig holds the simulation and strategy parameters.
type BacktestConfig struct {
	Strategy       string  `yaml:"strategy"`
	Market         string  `yaml:"market"`
	Unit           int     `yaml:"unit"`
	Candles        int     `yaml:"candles"`
	InitialCapital float64 `yaml:"initial_capital"`
	PositionSize   float64 `yaml:"position_size"`
	Commission     float64 `yaml:"commission"`
	BarsPerYear    float64 `yaml:"bars_per_year"`
	AnnualRiskFree float64 `yaml:"annual_risk_free"`

	// Regime thresholds shared by the classifier.
	ADXThreshold  float64 `yaml:"adx_threshold"`
	ChopThreshold float64 `yaml:"chop_threshold"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "coinrich.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Gather: GatherConfig{
			Markets:         []string{"KRW-BTC"},
			Unit:            15,
			StartDate:       "2024-01-01",
			RateLimitPerMin: 300,
		},
		Backtest: BacktestConfig{
			Strategy:       "adaptive",
			Market:         "KRW-BTC",
			Unit:           15,
			Candles:        200,
			InitialCapital: 1_000_000,
			PositionSize:   1.0,
			Commission:     0.0005,
			BarsPerYear:    252,
			AnnualRiskFree: 0.02,
			ADXThreshold:   25,
			ChopThreshold:  38.2,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, then applies environment variable overrides. An empty path
// returns defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backtest.PositionSize <= 0 || c.Backtest.PositionSize > 1 {
		return fmt.Errorf("config: position_size %v out of (0, 1]", c.Backtest.PositionSize)
	}
	if c.Backtest.Commission < 0 {
		return fmt.Errorf("config: negative commission %v", c.Backtest.Commission)
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("config: initial_capital %v must be positive", c.Backtest.InitialCapital)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("UPBIT_BASE_URL"); v != "" {
		cfg.Upbit.BaseURL = v
	}
	if v := os.Getenv("UPBIT_ACCESS_KEY"); v != "" {
		cfg.Upbit.AccessKey = v
	}
	if v := os.Getenv("UPBIT_SECRET_KEY"); v != "" {
		cfg.Upbit.SecretKey = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK take highest priority.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
