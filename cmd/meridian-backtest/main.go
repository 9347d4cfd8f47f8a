package main

import (
	"context"
	"flag"
	"log"
	"os"

	"meridian/internal/backtest"
	"meridian/internal/config"
	"meridian/internal/domain"
	"meridian/internal/report"
	"meridian/internal/store"
	"meridian/internal/util"
)

func main() {
	window := flag.Int("window", 0, "lookback window (default from config)")
	frequency := flag.String("frequency", "", "sampling frequency: daily | hourly | 5-minute (default from config)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: meridian-backtest [flags] <asset>")
	}
	asset := flag.Arg(0)

	cfgPath := "config/meridian.yaml"
	if p := os.Getenv("MERIDIAN_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = config.Default()
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	if *window == 0 {
		*window = cfg.Backtest.Window
	}
	if *frequency == "" {
		*frequency = cfg.Backtest.Frequency
	}
	freq := domain.Frequency(*frequency)
	if _, err := freq.PeriodsPerYear(); err != nil {
		log.Fatalf("invalid frequency: %v", err)
	}

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	series, err := st.LoadPrices(context.Background(), asset)
	if err != nil {
		log.Fatalf("loading prices for %s: %v", asset, err)
	}

	metrics, err := backtest.Run(series, *window, freq)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	report.WriteMetrics(os.Stdout, asset, *window, metrics)
}
