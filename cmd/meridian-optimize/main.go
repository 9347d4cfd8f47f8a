package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meridian/internal/config"
	"meridian/internal/domain"
	"meridian/internal/optimize"
	"meridian/internal/report"
	"meridian/internal/store"
	"meridian/internal/util"
)

func main() {
	start := flag.Int("start", 0, "first candidate window (default from config)")
	end := flag.Int("end", 0, "last candidate window (default from config)")
	step := flag.Int("step", 0, "window increment (default from config)")
	workers := flag.Int("workers", 0, "parallel evaluations (default from config)")
	frequency := flag.String("frequency", "", "sampling frequency: daily | hourly | 5-minute (default from config)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: meridian-optimize [flags] <asset>")
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

	windows := optimize.WindowRange{
		Start: cfg.Backtest.WindowRange.Start,
		End:   cfg.Backtest.WindowRange.End,
		Step:  cfg.Backtest.WindowRange.Step,
	}
	if *start != 0 {
		windows.Start = *start
	}
	if *end != 0 {
		windows.End = *end
	}
	if *step != 0 {
		windows.Step = *step
	}
	if *workers == 0 {
		*workers = cfg.Backtest.Workers
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	series, err := st.LoadPrices(ctx, asset)
	if err != nil {
		log.Fatalf("loading prices for %s: %v", asset, err)
	}

	gs := optimize.NewGridSearch(freq, *workers)
	res, err := gs.Run(ctx, series, windows)
	if err != nil {
		if errors.Is(err, optimize.ErrNoOptimalWindow) {
			fmt.Fprintln(os.Stderr, "no optimal window found: every candidate was excluded")
			os.Exit(1)
		}
		log.Fatalf("grid search failed: %v", err)
	}

	report.WriteScores(os.Stdout, asset, res)
}
