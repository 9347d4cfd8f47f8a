package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/meridian/data"
  sqlite_path: "/tmp/meridian/meridian.db"
  backend: "sqlite"
server:
  host: "127.0.0.1"
  port: 9090
coingecko:
  base_url: "https://api.coingecko.com/api/v3"
  vs_currency: "eur"
  days: "365"
  interval: "daily"
  retries: 5
  retry_delay_sec: 10
  rate_limit_per_min: 20
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
backtest:
  frequency: "daily"
  window: 50
  window_range:
    start: 10
    end: 100
    step: 5
  workers: 4
logging:
  level: "debug"
  format: "json"
`)

	path := filepath.Join(t.TempDir(), "meridian.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "sqlite")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.CoinGecko.VsCurrency != "eur" {
		t.Errorf("CoinGecko.VsCurrency = %q, want %q", cfg.CoinGecko.VsCurrency, "eur")
	}
	if cfg.CoinGecko.Retries != 5 {
		t.Errorf("CoinGecko.Retries = %d, want 5", cfg.CoinGecko.Retries)
	}
	if cfg.Backtest.Window != 50 {
		t.Errorf("Backtest.Window = %d, want 50", cfg.Backtest.Window)
	}
	if cfg.Backtest.WindowRange.Step != 5 {
		t.Errorf("Backtest.WindowRange.Step = %d, want 5", cfg.Backtest.WindowRange.Step)
	}
	if cfg.Backtest.Workers != 4 {
		t.Errorf("Backtest.Workers = %d, want 4", cfg.Backtest.Workers)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meridian.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.CoinGecko.Retries != 3 {
		t.Errorf("default CoinGecko.Retries = %d, want 3", cfg.CoinGecko.Retries)
	}
	if cfg.CoinGecko.RetryDelaySec != 45 {
		t.Errorf("default CoinGecko.RetryDelaySec = %d, want 45", cfg.CoinGecko.RetryDelaySec)
	}
	if cfg.Backtest.WindowRange != (WindowRange{Start: 10, End: 200, Step: 10}) {
		t.Errorf("default WindowRange = %+v", cfg.Backtest.WindowRange)
	}
	if cfg.Backtest.Frequency != "daily" {
		t.Errorf("default Backtest.Frequency = %q, want %q", cfg.Backtest.Frequency, "daily")
	}
	if cfg.Storage.Backend != "csv" {
		t.Errorf("default Storage.Backend = %q, want %q", cfg.Storage.Backend, "csv")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/override/data")
	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "meridian.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  data_dir: /from/file\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/override/data" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want env override", cfg.Alpaca.APIKey)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want env override", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}
