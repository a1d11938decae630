// Package config loads the tidemark YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tidemark.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Logging  Logging        `yaml:"logging"`
	Backtest BacktestConfig `yaml:"backtest"`
	Fetch    FetchConfig    `yaml:"fetch"`
}

// Storage holds paths for data persistence and report output.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	ReportDir  string `yaml:"report_dir"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CommissionConfig selects the fee schedule applied to fills.
type CommissionConfig struct {
	IsFund bool `yaml:"is_fund"`
}

// SizingConfig defines how buy orders are sized from available cash.
// Policy is "percent_of_cash" or "fixed_amount".
type SizingConfig struct {
	Policy  string  `yaml:"policy"`
	Percent float64 `yaml:"percent"`
	Amount  float64 `yaml:"amount"`
	LotSize int64   `yaml:"lot_size"`
	RoundUp bool    `yaml:"round_up"`
}

// BacktestConfig holds the parameters of a batch backtest.
type BacktestConfig struct {
	StartDate   string             `yaml:"start_date"`
	EndDate     string             `yaml:"end_date"`
	InitialCash float64            `yaml:"initial_cash"`
	FillPolicy  string             `yaml:"fill_policy"` // next_open | current_close
	Strategy    string             `yaml:"strategy"`
	Params      map[string]float64 `yaml:"params"`
	Commission  CommissionConfig   `yaml:"commission"`
	Sizing      SizingConfig       `yaml:"sizing"`
	MaxWorkers  int                `yaml:"max_workers"`
	StockFiles  []string           `yaml:"stock_files"`
}

// FetchConfig holds parameters for the daily quote fetcher.
type FetchConfig struct {
	BaseURL         string `yaml:"base_url"`
	StartDate       string `yaml:"start_date"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	MaxRetries      int    `yaml:"max_retries"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks fields whose bad values would only surface mid-batch.
func (c *Config) Validate() error {
	switch c.Backtest.FillPolicy {
	case "next_open", "current_close":
	default:
		return fmt.Errorf("config: unknown fill_policy %q", c.Backtest.FillPolicy)
	}

	switch c.Backtest.Sizing.Policy {
	case "percent_of_cash":
		if c.Backtest.Sizing.Percent <= 0 || c.Backtest.Sizing.Percent > 1 {
			return fmt.Errorf("config: sizing percent %v outside (0, 1]", c.Backtest.Sizing.Percent)
		}
	case "fixed_amount":
		if c.Backtest.Sizing.Amount <= 0 {
			return fmt.Errorf("config: sizing amount %v must be positive", c.Backtest.Sizing.Amount)
		}
	default:
		return fmt.Errorf("config: unknown sizing policy %q", c.Backtest.Sizing.Policy)
	}

	if c.Backtest.Sizing.LotSize <= 0 {
		return fmt.Errorf("config: lot_size %d must be positive", c.Backtest.Sizing.LotSize)
	}
	if c.Backtest.InitialCash <= 0 {
		return fmt.Errorf("config: initial_cash %v must be positive", c.Backtest.InitialCash)
	}
	return nil
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Backtest.FillPolicy == "" {
		cfg.Backtest.FillPolicy = "next_open"
	}
	if cfg.Backtest.Sizing.Policy == "" {
		cfg.Backtest.Sizing.Policy = "percent_of_cash"
	}
	if cfg.Backtest.Sizing.Percent == 0 && cfg.Backtest.Sizing.Policy == "percent_of_cash" {
		cfg.Backtest.Sizing.Percent = 0.8
	}
	if cfg.Backtest.Sizing.LotSize == 0 {
		cfg.Backtest.Sizing.LotSize = 100
	}
	if cfg.Backtest.InitialCash == 0 {
		cfg.Backtest.InitialCash = 100000
	}
	if cfg.Backtest.MaxWorkers <= 0 {
		cfg.Backtest.MaxWorkers = 1
	}
	if cfg.Fetch.RateLimitPerMin <= 0 {
		cfg.Fetch.RateLimitPerMin = 60
	}
	if cfg.Fetch.MaxRetries <= 0 {
		cfg.Fetch.MaxRetries = 3
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		cfg.Storage.ReportDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FETCH_BASE_URL"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := os.Getenv("INITIAL_CASH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCash = f
		}
	}
	if v := os.Getenv("MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.MaxWorkers = n
		}
	}
}
