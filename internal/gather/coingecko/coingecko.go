// Package coingecko fetches historical crypto price series and market
// listings from the CoinGecko public API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"meridian/internal/config"
	"meridian/internal/domain"
	"meridian/internal/gather"
	"meridian/internal/util"
)

// Compile-time interface check.
var _ gather.Source = (*Client)(nil)

// Client is a CoinGecko API client with bounded retry and client-side
// rate limiting. The free tier throttles on a fixed window, hence the
// fixed (not exponential) retry delay.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewClient creates a Client from the CoinGecko configuration section.
func NewClient(cfg config.CoinGecko) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retries:    cfg.Retries,
		retryDelay: time.Duration(cfg.RetryDelaySec) * time.Second,
		limiter:    util.NewRateLimiter(cfg.RateLimitPerMin),
		log:        slog.Default().With("source", "coingecko"),
	}
}

// Name returns the source identifier.
func (c *Client) Name() string { return "coingecko" }

// marketChartResponse is the subset of /coins/{id}/market_chart we use:
// "prices" is a list of [unix_ms, price] pairs.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchPriceSeries fetches the historical price series for a CoinGecko
// asset id (e.g. "bitcoin"). Timestamps are truncated to their UTC
// calendar date and deduplicated keeping the last value per date: the
// final pair of a response is an intra-day sample sharing the date of a
// daily close. Retries are bounded and the failure after the last
// attempt is terminal.
func (c *Client) FetchPriceSeries(ctx context.Context, asset string, req gather.Request) (domain.PriceSeries, error) {
	u := fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, url.PathEscape(asset))
	params := url.Values{
		"vs_currency": {req.Currency},
		"days":        {req.Span},
		"interval":    {req.Interval},
	}

	var series domain.PriceSeries
	err := util.Retry(ctx, c.retries, c.retryDelay, func() error {
		var chart marketChartResponse
		if err := c.getJSON(ctx, u+"?"+params.Encode(), &chart); err != nil {
			c.log.Warn("market_chart fetch failed", "asset", asset, "err", err)
			return err
		}

		series = make(domain.PriceSeries, 0, len(chart.Prices))
		for _, pair := range chart.Prices {
			ts := time.UnixMilli(int64(pair[0])).UTC()
			series = append(series, domain.PricePoint{
				Date:  ts.Truncate(24 * time.Hour),
				Price: pair[1],
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %v",
			gather.ErrAcquisitionFailed, asset, c.retries, err)
	}

	return series.Dedupe(), nil
}

// Market is one row of the top-markets listing.
type Market struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	PriceChange24h float64 `json:"price_change_percentage_24h_in_currency"`
}

// TopMarkets fetches the top cryptocurrencies by market capitalization.
func (c *Client) TopMarkets(ctx context.Context, currency string, limit int) ([]Market, error) {
	params := url.Values{
		"vs_currency":             {currency},
		"order":                   {"market_cap_desc"},
		"per_page":                {fmt.Sprintf("%d", limit)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}

	var markets []Market
	err := util.Retry(ctx, c.retries, c.retryDelay, func() error {
		return c.getJSON(ctx, c.baseURL+"/coins/markets?"+params.Encode(), &markets)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: markets listing after %d attempts: %v",
			gather.ErrAcquisitionFailed, c.retries, err)
	}
	return markets, nil
}

// getJSON performs a rate-limited GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", u, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
