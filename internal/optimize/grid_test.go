package optimize

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"meridian/internal/domain"
)

func series(prices []float64) domain.PriceSeries {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = domain.PricePoint{Date: base.AddDate(0, 0, i), Price: p}
	}
	return s
}

// randomWalk builds a deterministic seeded price path.
func randomWalk(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	prices[0] = 100
	for i := 1; i < n; i++ {
		prices[i] = prices[i-1] * (1 + r.NormFloat64()*0.02)
	}
	return prices
}

func TestWindowRangeWindows(t *testing.T) {
	got := DefaultWindowRange().Windows()
	if len(got) != 20 {
		t.Fatalf("default range has %d candidates, want 20", len(got))
	}
	if got[0] != 10 || got[19] != 200 {
		t.Errorf("default range spans [%d, %d], want [10, 200]", got[0], got[19])
	}

	if w := (WindowRange{Start: 5, End: 5, Step: 1}).Windows(); len(w) != 1 || w[0] != 5 {
		t.Errorf("single-candidate range = %v, want [5]", w)
	}
	if w := (WindowRange{Start: 10, End: 5, Step: 1}).Windows(); w != nil {
		t.Errorf("inverted range = %v, want nil", w)
	}
	if w := (WindowRange{Start: 1, End: 10, Step: 0}).Windows(); w != nil {
		t.Errorf("zero-step range = %v, want nil", w)
	}
}

func TestGridSearchConstantSeries(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 100
	}

	gs := NewGridSearch(domain.FrequencyDaily, 1)
	_, err := gs.Run(context.Background(), series(prices), WindowRange{Start: 10, End: 30, Step: 10})

	// Zero variance means every candidate hits the zero-volatility guard;
	// the search must report no optimum, not crash or pick arbitrarily.
	if !errors.Is(err, ErrNoOptimalWindow) {
		t.Fatalf("Run returned %v, want ErrNoOptimalWindow", err)
	}
}

func TestGridSearchMonotonicSeriesExcluded(t *testing.T) {
	// Strictly rising prices never draw down, so the objective divides by
	// zero for every candidate and all of them are excluded.
	prices := make([]float64, 100)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	gs := NewGridSearch(domain.FrequencyDaily, 1)
	_, err := gs.Run(context.Background(), series(prices), WindowRange{Start: 5, End: 15, Step: 5})
	if !errors.Is(err, ErrNoOptimalWindow) {
		t.Fatalf("Run returned %v, want ErrNoOptimalWindow", err)
	}
}

func TestGridSearchZigzag(t *testing.T) {
	// An uptrend with a sharp dip: the long position takes a loss at the
	// dip, so drawdown is positive and the objective is defined.
	prices := []float64{
		100, 105, 110, 115, 120, 110, 115, 120, 125, 130,
		128, 134, 140, 138, 145, 150, 148, 155, 160, 158,
	}

	gs := NewGridSearch(domain.FrequencyDaily, 1)
	res, err := gs.Run(context.Background(), series(prices), WindowRange{Start: 2, End: 3, Step: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.BestWindow != 2 && res.BestWindow != 3 {
		t.Fatalf("BestWindow = %d, want a candidate from the range", res.BestWindow)
	}
	if len(res.Scores) != 2 {
		t.Fatalf("Scores has %d entries, want 2", len(res.Scores))
	}

	// The reported best must be the strictly greatest score, first seen.
	best := math.Inf(-1)
	bestWindow := 0
	for _, sc := range res.Scores {
		if sc.Excluded {
			continue
		}
		if sc.Objective > best {
			best = sc.Objective
			bestWindow = sc.Window
		}
	}
	if bestWindow != res.BestWindow || best != res.BestObjective {
		t.Errorf("best = (%d, %v), scores imply (%d, %v)",
			res.BestWindow, res.BestObjective, bestWindow, best)
	}
}

func TestGridSearchReproducible(t *testing.T) {
	prices := randomWalk(42, 500)
	windows := WindowRange{Start: 10, End: 30, Step: 10}

	run := func(workers int) (*Result, error) {
		gs := NewGridSearch(domain.FrequencyDaily, workers)
		return gs.Run(context.Background(), series(prices), windows)
	}

	seq1, err1 := run(1)
	seq2, err2 := run(1)
	par, err3 := run(4)

	// Whatever the outcome, it must be identical across repeated runs and
	// across the sequential and parallel paths: no hidden shared state.
	if (err1 == nil) != (err2 == nil) || (err1 == nil) != (err3 == nil) {
		t.Fatalf("runs disagree on error: %v, %v, %v", err1, err2, err3)
	}
	if err1 != nil {
		return
	}

	for _, other := range []*Result{seq2, par} {
		if seq1.BestWindow != other.BestWindow {
			t.Errorf("BestWindow differs: %d vs %d", seq1.BestWindow, other.BestWindow)
		}
		if math.Float64bits(seq1.BestObjective) != math.Float64bits(other.BestObjective) {
			t.Errorf("BestObjective differs: %v vs %v", seq1.BestObjective, other.BestObjective)
		}
		for i := range seq1.Scores {
			a, b := seq1.Scores[i], other.Scores[i]
			if a.Window != b.Window || a.Excluded != b.Excluded ||
				math.Float64bits(a.Objective) != math.Float64bits(b.Objective) {
				t.Errorf("score %d differs: %+v vs %+v", i, a, b)
			}
		}
	}
}

func TestGridSearchEmptyRange(t *testing.T) {
	gs := NewGridSearch(domain.FrequencyDaily, 1)
	_, err := gs.Run(context.Background(), series(randomWalk(1, 50)), WindowRange{Start: 10, End: 5, Step: 1})
	if err == nil {
		t.Fatal("Run should reject an empty window range")
	}
}

func TestGridSearchPropagatesInsufficientData(t *testing.T) {
	// A window larger than the series is a caller error, not an excluded
	// candidate: it must abort the search with the window in the message.
	gs := NewGridSearch(domain.FrequencyDaily, 1)
	_, err := gs.Run(context.Background(), series(randomWalk(7, 20)), WindowRange{Start: 50, End: 50, Step: 1})
	if err == nil {
		t.Fatal("Run should propagate insufficient-data errors")
	}
	if errors.Is(err, ErrNoOptimalWindow) {
		t.Fatalf("Run returned %v; insufficient data must not masquerade as no-optimum", err)
	}
}
