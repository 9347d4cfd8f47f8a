// Package optimize searches a range of lookback windows for the one that
// maximizes the risk-adjusted objective Sharpe / MaxDrawdown by running
// an independent backtest per candidate window.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"meridian/internal/backtest"
	"meridian/internal/domain"
)

// ErrNoOptimalWindow is returned when every candidate window was excluded
// (zero drawdown, zero volatility, or an undefined objective), so the
// search has no maximum to report.
var ErrNoOptimalWindow = errors.New("no optimal window found")

// WindowRange enumerates candidate lookback windows from Start to End
// inclusive in increments of Step.
type WindowRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
	Step  int `yaml:"step"`
}

// DefaultWindowRange is the canonical search space: 10 to 200 in steps
// of 10.
func DefaultWindowRange() WindowRange {
	return WindowRange{Start: 10, End: 200, Step: 10}
}

// Windows expands the range into the ordered candidate list.
func (r WindowRange) Windows() []int {
	if r.Step <= 0 || r.End < r.Start {
		return nil
	}
	var out []int
	for w := r.Start; w <= r.End; w += r.Step {
		out = append(out, w)
	}
	return out
}

// WindowScore is the diagnostic record for one candidate window. Excluded
// candidates (division-by-zero guards) carry a zero Objective and take no
// part in the maximum.
type WindowScore struct {
	Window    int     `json:"window"`
	Objective float64 `json:"objective"`
	Excluded  bool    `json:"excluded,omitempty"`
}

// Result is the outcome of a grid search: the single best window plus the
// full per-window score list for diagnostics.
type Result struct {
	BestWindow    int           `json:"best_window"`
	BestObjective float64       `json:"best_objective"`
	Scores        []WindowScore `json:"scores"`
}

// GridSearch drives the signal → returns → metrics pipeline across a
// window range. Candidates are pure, independent computations, so they
// may be fanned out over a worker pool without affecting the outcome.
type GridSearch struct {
	frequency domain.Frequency
	workers   int
	log       *slog.Logger
}

// NewGridSearch creates a GridSearch at the given sampling frequency.
// workers <= 1 runs candidates sequentially.
func NewGridSearch(frequency domain.Frequency, workers int) *GridSearch {
	return &GridSearch{
		frequency: frequency,
		workers:   workers,
		log:       slog.Default().With("component", "optimize"),
	}
}

// Run evaluates every candidate window over the series and returns the
// window with the highest Sharpe/MaxDrawdown objective. Ties keep the
// earliest window (strictly-greater comparison). Candidates whose
// drawdown or volatility is zero are excluded rather than failing the
// search; any other backtest error aborts with the offending window in
// the error chain.
func (g *GridSearch) Run(ctx context.Context, series domain.PriceSeries, windows WindowRange) (*Result, error) {
	candidates := windows.Windows()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty window range %+v", windows)
	}

	scores := make([]WindowScore, len(candidates))
	errs := make([]error, len(candidates))

	if g.workers > 1 {
		g.runParallel(ctx, series, candidates, scores, errs)
	} else {
		for i, w := range candidates {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			scores[i], errs[i] = g.evaluate(series, w)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Scan in candidate order so the result is independent of worker
	// scheduling.
	res := &Result{
		BestObjective: math.Inf(-1),
		Scores:        scores,
	}
	for i, sc := range scores {
		if errs[i] != nil {
			return nil, fmt.Errorf("window %d: %w", candidates[i], errs[i])
		}
		if sc.Excluded {
			continue
		}
		if sc.Objective > res.BestObjective {
			res.BestObjective = sc.Objective
			res.BestWindow = sc.Window
		}
	}
	if res.BestWindow == 0 {
		return nil, ErrNoOptimalWindow
	}

	g.log.Info("grid search complete",
		"candidates", len(candidates),
		"best_window", res.BestWindow,
		"best_objective", res.BestObjective,
	)
	return res, nil
}

// runParallel fans candidate indices out to a bounded worker pool. Each
// worker writes only its own slots in scores and errs.
func (g *GridSearch) runParallel(ctx context.Context, series domain.PriceSeries, candidates []int, scores []WindowScore, errs []error) {
	idxCh := make(chan int, len(candidates))
	for i := range candidates {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	workers := min(g.workers, len(candidates))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				if ctx.Err() != nil {
					return
				}
				scores[i], errs[i] = g.evaluate(series, candidates[i])
			}
		}()
	}
	wg.Wait()
}

// evaluate backtests a single window and converts the division-by-zero
// guards into an excluded score.
func (g *GridSearch) evaluate(series domain.PriceSeries, window int) (WindowScore, error) {
	m, err := backtest.Run(series, window, g.frequency)
	if err != nil {
		if errors.Is(err, backtest.ErrZeroVolatility) {
			return WindowScore{Window: window, Excluded: true}, nil
		}
		return WindowScore{Window: window}, err
	}
	if m.MaxDrawdown == 0 {
		return WindowScore{Window: window, Excluded: true}, nil
	}

	objective := m.SharpeRatio / m.MaxDrawdown
	if math.IsNaN(objective) || math.IsInf(objective, 0) {
		return WindowScore{Window: window, Excluded: true}, nil
	}
	return WindowScore{Window: window, Objective: objective}, nil
}
