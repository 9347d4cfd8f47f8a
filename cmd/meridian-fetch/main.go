package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meridian/internal/config"
	"meridian/internal/gather"
	"meridian/internal/gather/alpaca"
	"meridian/internal/gather/coingecko"
	"meridian/internal/store"
	"meridian/internal/util"
)

func main() {
	source := flag.String("source", "coingecko", "price source: coingecko | alpaca")
	currency := flag.String("currency", "", "quote currency (default from config)")
	span := flag.String("span", "", "history span in days, or \"max\" (default from config)")
	interval := flag.String("interval", "", "sampling interval (default from config)")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: meridian-fetch [flags] <asset> [<asset>...]")
	}

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

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	var src gather.Source
	switch *source {
	case "coingecko":
		src = coingecko.NewClient(cfg.CoinGecko)
	case "alpaca":
		src = alpaca.NewSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	default:
		log.Fatalf("unknown source %q", *source)
	}

	req := gather.Request{
		Currency: cfg.CoinGecko.VsCurrency,
		Span:     cfg.CoinGecko.Days,
		Interval: cfg.CoinGecko.Interval,
	}
	if *currency != "" {
		req.Currency = *currency
	}
	if *span != "" {
		req.Span = *span
	}
	if *interval != "" {
		req.Interval = *interval
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, asset := range flag.Args() {
		logger.Info("fetching price series",
			"source", src.Name(), "asset", asset, "span", req.Span)

		series, err := src.FetchPriceSeries(ctx, asset, req)
		if err != nil {
			log.Fatalf("fetching %s: %v", asset, err)
		}
		if err := st.SavePrices(ctx, asset, series); err != nil {
			log.Fatalf("saving %s: %v", asset, err)
		}
		logger.Info("saved price series", "asset", asset, "rows", len(series))
	}
}
