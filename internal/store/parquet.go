package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"meridian/internal/domain"
)

// Compile-time interface check.
var _ PriceStore = (*ParquetStore)(nil)

// ParquetStore implements PriceStore with one Parquet file per asset at
// <DataDir>/<asset>.parquet.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data
// directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// PriceRecord is the Parquet schema for the flat price table.
type PriceRecord struct {
	Date  string  `parquet:"date"` // ISO-8601
	Price float64 `parquet:"price"`
}

// SavePrices merges the series into the asset's Parquet file. Existing
// rows are read back, deduplicated by date with the incoming rows
// winning, sorted, and the file rewritten.
func (s *ParquetStore) SavePrices(_ context.Context, asset string, series domain.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}

	path := s.assetPath(asset)
	existing, _ := readParquetFile[PriceRecord](path)

	incoming := make([]PriceRecord, len(series))
	for i, p := range series {
		incoming[i] = PriceRecord{
			Date:  p.Date.Format(domain.DateLayout),
			Price: p.Price,
		}
	}

	merged := mergePriceRecords(existing, incoming)
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing prices for %s: %w", asset, err)
	}
	return nil
}

// LoadPrices reads the full stored series for the asset.
func (s *ParquetStore) LoadPrices(_ context.Context, asset string) (domain.PriceSeries, error) {
	records, err := readParquetFile[PriceRecord](s.assetPath(asset))
	if err != nil {
		return nil, fmt.Errorf("loading prices for %s: %w", asset, err)
	}

	series := make(domain.PriceSeries, 0, len(records))
	for _, r := range records {
		date, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", asset, r.Date, err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: r.Price})
	}
	return series, nil
}

// ListAssets returns the assets that have a Parquet file in the data
// directory.
func (s *ParquetStore) ListAssets(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var assets []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		assets = append(assets, strings.TrimSuffix(e.Name(), ".parquet"))
	}
	sort.Strings(assets)
	return assets, nil
}

// assetPath returns the Parquet file path for an asset.
func (s *ParquetStore) assetPath(asset string) string {
	return filepath.Join(s.DataDir, asset+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergePriceRecords deduplicates by date, preferring incoming records
// over existing ones. Results are sorted by date; ISO-8601 strings sort
// chronologically.
func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	seen := make(map[string]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
