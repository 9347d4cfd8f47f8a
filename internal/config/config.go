package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for meridian.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Server    Server    `yaml:"server"`
	CoinGecko CoinGecko `yaml:"coingecko"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Backtest  Backtest  `yaml:"backtest"`
	Logging   Logging   `yaml:"logging"`
}

// Storage holds paths and backend selection for price persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	Backend    string `yaml:"backend"` // csv | parquet | sqlite
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CoinGecko holds endpoint and retry parameters for the CoinGecko
// market-data API.
type CoinGecko struct {
	BaseURL         string `yaml:"base_url"`
	VsCurrency      string `yaml:"vs_currency"`
	Days            string `yaml:"days"`     // e.g. "1", "30", "max"
	Interval        string `yaml:"interval"` // e.g. "daily"
	Retries         int    `yaml:"retries"`
	RetryDelaySec   int    `yaml:"retry_delay_sec"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Backtest defines the default backtest and optimization parameters.
type Backtest struct {
	Frequency   string      `yaml:"frequency"` // daily | hourly | 5-minute
	Window      int         `yaml:"window"`
	WindowRange WindowRange `yaml:"window_range"`
	Workers     int         `yaml:"workers"`
}

// WindowRange enumerates candidate windows for the grid search.
type WindowRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
	Step  int `yaml:"step"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, fills unset fields with defaults, and then applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config with every field at its default value, for use
// when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/meridian.db"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "csv"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.VsCurrency == "" {
		cfg.CoinGecko.VsCurrency = "usd"
	}
	if cfg.CoinGecko.Days == "" {
		cfg.CoinGecko.Days = "max"
	}
	if cfg.CoinGecko.Interval == "" {
		cfg.CoinGecko.Interval = "daily"
	}
	if cfg.CoinGecko.Retries == 0 {
		cfg.CoinGecko.Retries = 3
	}
	if cfg.CoinGecko.RetryDelaySec == 0 {
		cfg.CoinGecko.RetryDelaySec = 45
	}
	if cfg.CoinGecko.RateLimitPerMin == 0 {
		cfg.CoinGecko.RateLimitPerMin = 30
	}
	if cfg.Backtest.Frequency == "" {
		cfg.Backtest.Frequency = "daily"
	}
	if cfg.Backtest.Window == 0 {
		cfg.Backtest.Window = 200
	}
	if cfg.Backtest.WindowRange == (WindowRange{}) {
		cfg.Backtest.WindowRange = WindowRange{Start: 10, End: 200, Step: 10}
	}
	if cfg.Backtest.Workers == 0 {
		cfg.Backtest.Workers = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
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
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
