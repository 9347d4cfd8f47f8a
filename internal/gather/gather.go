// Package gather defines the data-acquisition contract: given an asset
// identifier, return a time-ordered series of (date, price) pairs, or
// fail. The backtesting core never performs I/O itself; it consumes fully
// materialized series produced by a Source before the run begins.
package gather

import (
	"context"
	"errors"

	"meridian/internal/domain"
)

// ErrAcquisitionFailed marks a terminal fetch failure after all retries
// were exhausted. Callers must treat it as a hard stop: no partial or
// silently substituted data.
var ErrAcquisitionFailed = errors.New("data acquisition failed")

// Request describes the slice of history to fetch.
type Request struct {
	Currency string // quote currency, e.g. "usd"
	Span     string // number of days, or "max"
	Interval string // sampling interval, e.g. "daily"
}

// Source fetches historical price series from an external provider.
type Source interface {
	// Name returns the source identifier.
	Name() string

	// FetchPriceSeries returns the deduplicated, time-ordered price
	// series for the asset, or fails terminally.
	FetchPriceSeries(ctx context.Context, asset string, req Request) (domain.PriceSeries, error)
}
