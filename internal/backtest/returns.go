// Package backtest converts position signals into realized strategy
// returns and computes performance metrics over them: cumulative return,
// drawdown, CAGR, annualized volatility, and Sharpe ratio.
package backtest

import (
	"math"
)

// StrategyReturns computes the per-period realized return of a position
// signal over a price column:
//
//	r[t] = (price[t] - price[t-1]) / price[t-1] × positions[t-1]
//
// The position applied at t is the raw signal from t-1. This one-period
// execution lag is the sole safeguard against trading on same-period
// information and must never be relaxed.
//
// r[0] is NaN: there is no prior price and no prior signal. NaN marks the
// value as missing rather than fabricating a zero return; metric
// accumulators skip NaN entries.
func StrategyReturns(prices []float64, positions []int) []float64 {
	out := make([]float64, len(prices))
	for t := range prices {
		if t == 0 {
			out[t] = math.NaN()
			continue
		}
		pct := (prices[t] - prices[t-1]) / prices[t-1]
		out[t] = pct * float64(positions[t-1])
	}
	return out
}
