package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meridian/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ PriceStore = (*SQLiteStore)(nil)

// SQLiteStore implements PriceStore backed by a single SQLite database
// with a prices(asset, date, price) table keyed on (asset, date).
type SQLiteStore struct {
	db *sql.DB
}

const pricesSchema = `
CREATE TABLE IF NOT EXISTS prices (
	asset TEXT NOT NULL,
	date  TEXT NOT NULL,
	price REAL NOT NULL,
	PRIMARY KEY (asset, date)
);`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, ensures
// the schema exists, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(pricesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating prices table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePrices upserts the series into the prices table inside a single
// transaction. Rows with an existing (asset, date) key are replaced.
func (s *SQLiteStore) SavePrices(ctx context.Context, asset string, series domain.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO prices (asset, date, price) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.ExecContext(ctx, asset, p.Date.Format(domain.DateLayout), p.Price); err != nil {
			return fmt.Errorf("inserting %s/%s: %w", asset, p.Date.Format(domain.DateLayout), err)
		}
	}
	return tx.Commit()
}

// LoadPrices returns the stored series for the asset sorted by date.
func (s *SQLiteStore) LoadPrices(ctx context.Context, asset string) (domain.PriceSeries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, price FROM prices WHERE asset = ? ORDER BY date ASC`, asset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series domain.PriceSeries
	for rows.Next() {
		var dateStr string
		var price float64
		if err := rows.Scan(&dateStr, &price); err != nil {
			return nil, err
		}
		date, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad date %q for %s: %w", dateStr, asset, err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}
	return series, rows.Err()
}

// ListAssets returns all assets present in the prices table, sorted.
func (s *SQLiteStore) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT asset FROM prices ORDER BY asset ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
