package domain

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPriceSeriesDedupe(t *testing.T) {
	s := PriceSeries{
		{Date: date("2024-01-03"), Price: 103},
		{Date: date("2024-01-01"), Price: 100},
		{Date: date("2024-01-02"), Price: 101},
		// Later sample for an already-seen date: last write wins.
		{Date: date("2024-01-02"), Price: 102},
	}

	got := s.Dedupe()
	if len(got) != 3 {
		t.Fatalf("Dedupe returned %d points, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("Dedupe result not sorted at index %d", i)
		}
	}
	if got[1].Price != 102 {
		t.Errorf("Dedupe kept price %v for 2024-01-02, want 102 (last seen)", got[1].Price)
	}
}

func TestPriceSeriesColumns(t *testing.T) {
	s := PriceSeries{
		{Date: date("2024-01-01"), Price: 100},
		{Date: date("2024-01-02"), Price: 101.5},
	}

	prices := s.Prices()
	if len(prices) != 2 || prices[0] != 100 || prices[1] != 101.5 {
		t.Errorf("Prices() = %v, want [100 101.5]", prices)
	}

	dates := s.Dates()
	if len(dates) != 2 || !dates[0].Equal(date("2024-01-01")) {
		t.Errorf("Dates() = %v", dates)
	}
}

func TestFrequencyPeriodsPerYear(t *testing.T) {
	cases := []struct {
		freq Frequency
		want float64
	}{
		{FrequencyDaily, 365},
		{FrequencyHourly, 365 * 24},
		{FrequencyFiveMinute, 365 * 24 * 12},
	}
	for _, c := range cases {
		got, err := c.freq.PeriodsPerYear()
		if err != nil {
			t.Fatalf("PeriodsPerYear(%s): %v", c.freq, err)
		}
		if got != c.want {
			t.Errorf("PeriodsPerYear(%s) = %v, want %v", c.freq, got, c.want)
		}
	}

	if _, err := Frequency("weekly").PeriodsPerYear(); err == nil {
		t.Error("PeriodsPerYear should reject an unknown frequency")
	}
}
