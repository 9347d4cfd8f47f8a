// Package domain defines the core value types shared across the meridian
// backtesting pipeline: price observations, price series, and sampling
// frequencies.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO-8601 date format used for all persisted and
// transported timestamps.
const DateLayout = "2006-01-02"

// PricePoint is a single time-ordered price observation.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries is a strictly time-ordered sequence of price observations,
// one per period, with no duplicate dates. It is treated as an immutable
// value: every pipeline stage consumes a series and produces new slices.
type PriceSeries []PricePoint

// Prices returns the price column of the series.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Price
	}
	return out
}

// Dates returns the date column of the series.
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i := range s {
		out[i] = s[i].Date
	}
	return out
}

// Dedupe returns a new series with exactly one observation per calendar
// date, keeping the last-seen value for each date, sorted ascending. This
// is the canonical ingest normalization: raw API responses may carry an
// intra-day sample alongside the daily close for the current day.
func (s PriceSeries) Dedupe() PriceSeries {
	seen := make(map[string]PricePoint, len(s))
	for _, p := range s {
		seen[p.Date.Format(DateLayout)] = p
	}

	out := make(PriceSeries, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Frequency identifies the sampling interval of a price series and maps it
// to a fixed number of periods per year. Crypto markets trade every day of
// the year, hence the 365-day base.
type Frequency string

// Supported sampling frequencies.
const (
	FrequencyDaily      Frequency = "daily"
	FrequencyHourly     Frequency = "hourly"
	FrequencyFiveMinute Frequency = "5-minute"
)

// PeriodsPerYear returns the annualization factor h for the frequency.
func (f Frequency) PeriodsPerYear() (float64, error) {
	switch f {
	case FrequencyDaily:
		return 365, nil
	case FrequencyHourly:
		return 365 * 24, nil
	case FrequencyFiveMinute:
		return 365 * 24 * 12, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", string(f))
	}
}
