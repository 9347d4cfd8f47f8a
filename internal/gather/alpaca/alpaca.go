// Package alpaca adapts the Alpaca market-data API to the gather.Source
// contract: daily bar closes for US equities become a (date, price)
// series, so stocks can flow through the same backtesting pipeline as
// crypto assets.
package alpaca

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"meridian/internal/domain"
	"meridian/internal/gather"
)

// Compile-time interface check.
var _ gather.Source = (*Source)(nil)

// earliestStart bounds "max" span requests; Alpaca SIP data does not
// reach further back than this.
var earliestStart = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

// Source fetches daily close prices from the Alpaca market-data API.
type Source struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewSource creates a Source with the given Alpaca credentials. dataURL
// may be empty to use the SDK default.
func NewSource(apiKey, apiSecret, dataURL string) *Source {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &Source{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("source", "alpaca"),
	}
}

// Name returns the source identifier.
func (s *Source) Name() string { return "alpaca" }

// FetchPriceSeries fetches daily bars for the symbol and maps each close
// to a price point on the bar's date. Only the "daily" interval is
// supported; span is a day count or "max".
func (s *Source) FetchPriceSeries(ctx context.Context, symbol string, req gather.Request) (domain.PriceSeries, error) {
	if req.Interval != "" && req.Interval != "daily" {
		return nil, fmt.Errorf("alpaca source supports only daily interval, got %q", req.Interval)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	start, err := spanStart(req.Span)
	if err != nil {
		return nil, err
	}

	bars, err := s.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gather.ErrAcquisitionFailed, symbol, err)
	}

	series := make(domain.PriceSeries, 0, len(bars))
	for _, b := range bars {
		series = append(series, domain.PricePoint{
			Date:  b.Timestamp.UTC().Truncate(24 * time.Hour),
			Price: b.Close,
		})
	}

	s.log.Info("fetched daily bars", "symbol", symbol, "bars", len(series))
	return series.Dedupe(), nil
}

// spanStart converts a span ("max" or a day count) into a start time.
func spanStart(span string) (time.Time, error) {
	if span == "" || span == "max" {
		return earliestStart, nil
	}
	days, err := strconv.Atoi(span)
	if err != nil || days < 1 {
		return time.Time{}, fmt.Errorf("invalid span %q: want a day count or \"max\"", span)
	}
	return time.Now().UTC().AddDate(0, 0, -days), nil
}
