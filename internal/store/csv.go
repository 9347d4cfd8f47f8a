package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"meridian/internal/domain"
)

// Compile-time interface check.
var _ PriceStore = (*CSVStore)(nil)

// CSVStore implements PriceStore with one CSV file per asset at
// <DataDir>/<asset>.csv, header "date,price", ISO-8601 dates.
type CSVStore struct {
	DataDir string
}

// NewCSVStore creates a CSVStore rooted at the given data directory.
func NewCSVStore(dataDir string) *CSVStore {
	return &CSVStore{DataDir: dataDir}
}

// SavePrices merges the series into the asset's CSV file, deduplicating
// by date with last-write-wins, and rewrites the file sorted by date.
func (s *CSVStore) SavePrices(_ context.Context, asset string, series domain.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}

	path := s.assetPath(asset)
	existing, err := readCSVSeries(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading existing prices for %s: %w", asset, err)
	}

	merged := append(existing, series...).Dedupe()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "price"}); err != nil {
		return err
	}
	for _, p := range merged {
		row := []string{
			p.Date.Format(domain.DateLayout),
			strconv.FormatFloat(p.Price, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadPrices reads the full stored series for the asset.
func (s *CSVStore) LoadPrices(_ context.Context, asset string) (domain.PriceSeries, error) {
	series, err := readCSVSeries(s.assetPath(asset))
	if err != nil {
		return nil, fmt.Errorf("loading prices for %s: %w", asset, err)
	}
	return series, nil
}

// ListAssets returns the assets that have a CSV file in the data
// directory.
func (s *CSVStore) ListAssets(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var assets []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		assets = append(assets, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(assets)
	return assets, nil
}

// assetPath returns the CSV file path for an asset.
func (s *CSVStore) assetPath(asset string) string {
	return filepath.Join(s.DataDir, asset+".csv")
}

// readCSVSeries parses a date,price CSV file into a series.
func readCSVSeries(path string) (domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var series domain.PriceSeries
	for i, row := range rows {
		if i == 0 && len(row) >= 1 && row[0] == "date" {
			continue // header
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 2", path, i+1, len(row))
		}
		date, err := time.Parse(domain.DateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}
	return series, nil
}
