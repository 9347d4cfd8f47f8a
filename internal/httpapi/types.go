// Package httpapi provides the JSON HTTP API for running backtests and
// window optimizations over stored price series.
package httpapi

import (
	"meridian/internal/backtest"
	"meridian/internal/optimize"
)

// BacktestResponse is the result of a single-window backtest.
type BacktestResponse struct {
	Asset     string           `json:"asset"`
	Window    int              `json:"window"`
	Frequency string           `json:"frequency"`
	Periods   int              `json:"periods"`
	Metrics   backtest.Metrics `json:"metrics"`
}

// OptimizeResponse is the result of a grid search over windows.
type OptimizeResponse struct {
	Asset         string                 `json:"asset"`
	Frequency     string                 `json:"frequency"`
	BestWindow    int                    `json:"best_window"`
	BestObjective float64                `json:"best_objective"`
	Scores        []optimize.WindowScore `json:"scores"`
}

// AssetsResponse lists the assets available in the store.
type AssetsResponse struct {
	Assets []string `json:"assets"`
}
