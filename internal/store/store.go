// Package store persists price series as flat time-indexed tables, one
// logical table per asset with columns {date, price}. Three backends are
// provided: CSV (the interchange format), Parquet, and SQLite. All of
// them deduplicate by date with last-write-wins on every save.
package store

import (
	"context"
	"fmt"

	"meridian/internal/domain"
)

// PriceStore persists and retrieves per-asset price series.
type PriceStore interface {
	// SavePrices merges the series into the stored table for the asset.
	// Existing rows with the same date are overwritten.
	SavePrices(ctx context.Context, asset string, series domain.PriceSeries) error

	// LoadPrices returns the full stored series for the asset, sorted by
	// date ascending.
	LoadPrices(ctx context.Context, asset string) (domain.PriceSeries, error)

	// ListAssets returns all assets with stored data, sorted.
	ListAssets(ctx context.Context) ([]string, error)
}

// Open constructs the PriceStore selected by backend ("csv", "parquet",
// or "sqlite"). dataDir is used by the file backends, sqlitePath by the
// SQLite backend.
func Open(backend, dataDir, sqlitePath string) (PriceStore, error) {
	switch backend {
	case "csv":
		return NewCSVStore(dataDir), nil
	case "parquet":
		return NewParquetStore(dataDir), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
