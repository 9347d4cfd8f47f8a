package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meridian/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleSeries() domain.PriceSeries {
	return domain.PriceSeries{
		{Date: day("2024-01-01"), Price: 42000.5},
		{Date: day("2024-01-02"), Price: 42250},
		{Date: day("2024-01-03"), Price: 41800.25},
	}
}

// roundTrip exercises the PriceStore contract shared by all backends:
// save, load back sorted, merge with last-write-wins, list assets.
func roundTrip(t *testing.T, s PriceStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.SavePrices(ctx, "bitcoin", sampleSeries()); err != nil {
		t.Fatalf("SavePrices: %v", err)
	}

	got, err := s.LoadPrices(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("LoadPrices: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("LoadPrices returned %d points, want 3", len(got))
	}
	if got[0].Price != 42000.5 || got[2].Price != 41800.25 {
		t.Errorf("LoadPrices returned wrong prices: %v", got)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("LoadPrices result not sorted at index %d", i)
		}
	}

	// Overwrite one date and extend — the duplicate must take the new
	// value, not produce a second row.
	update := domain.PriceSeries{
		{Date: day("2024-01-03"), Price: 41900},
		{Date: day("2024-01-04"), Price: 43000},
	}
	if err := s.SavePrices(ctx, "bitcoin", update); err != nil {
		t.Fatalf("SavePrices (merge): %v", err)
	}

	got, err = s.LoadPrices(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("LoadPrices after merge: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("LoadPrices returned %d points after merge, want 4", len(got))
	}
	if got[2].Price != 41900 {
		t.Errorf("merged price for 2024-01-03 = %v, want 41900 (last write wins)", got[2].Price)
	}

	// Second asset, then listing.
	if err := s.SavePrices(ctx, "ethereum", sampleSeries()); err != nil {
		t.Fatalf("SavePrices (ethereum): %v", err)
	}
	assets, err := s.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 2 || assets[0] != "bitcoin" || assets[1] != "ethereum" {
		t.Errorf("ListAssets = %v, want [bitcoin ethereum]", assets)
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewCSVStore(t.TempDir()))
}

func TestParquetStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewParquetStore(t.TempDir()))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	roundTrip(t, s)
}

func TestCSVStoreLoadMissingAsset(t *testing.T) {
	s := NewCSVStore(t.TempDir())
	if _, err := s.LoadPrices(context.Background(), "nope"); err == nil {
		t.Error("LoadPrices should fail for an unknown asset")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"csv", "parquet", "sqlite"} {
		s, err := Open(backend, dir, filepath.Join(dir, "m.db"))
		if err != nil {
			t.Fatalf("Open(%q): %v", backend, err)
		}
		if s == nil {
			t.Fatalf("Open(%q) returned nil store", backend)
		}
	}

	if _, err := Open("redis", dir, ""); err == nil {
		t.Error("Open should reject an unknown backend")
	}
}
