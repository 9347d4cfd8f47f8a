// Package report renders backtest metrics and grid-search results as
// plain text tables for the CLI tools.
package report

import (
	"fmt"
	"io"
	"strings"

	"meridian/internal/backtest"
	"meridian/internal/optimize"
)

// FormatPercent formats a fraction as a signed percentage, e.g. "+12.3%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// WriteMetrics renders a metrics summary for one backtest run.
func WriteMetrics(w io.Writer, asset string, window int, m backtest.Metrics) {
	fmt.Fprintf(w, "Backtest %s (window %d)\n", asset, window)
	fmt.Fprintf(w, "  total performance      %s\n", FormatPercent(m.TotalPerformance))
	fmt.Fprintf(w, "  annualized return      %s\n", FormatPercent(m.CAGR))
	fmt.Fprintf(w, "  annualized volatility  %.4f\n", m.AnnualizedVolatility)
	fmt.Fprintf(w, "  sharpe ratio           %.4f\n", m.SharpeRatio)
	fmt.Fprintf(w, "  max drawdown           %s\n", FormatPercent(m.MaxDrawdown))
}

// WriteScores renders the per-window objective table of a grid search,
// marking the winning window and excluded candidates.
func WriteScores(w io.Writer, asset string, res *optimize.Result) {
	fmt.Fprintf(w, "Grid search %s\n", asset)
	fmt.Fprintf(w, "  %-8s %-12s\n", "window", "objective")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 21))
	for _, sc := range res.Scores {
		switch {
		case sc.Excluded:
			fmt.Fprintf(w, "  %-8d %-12s\n", sc.Window, "excluded")
		case sc.Window == res.BestWindow:
			fmt.Fprintf(w, "  %-8d %-12.4f <- best\n", sc.Window, sc.Objective)
		default:
			fmt.Fprintf(w, "  %-8d %-12.4f\n", sc.Window, sc.Objective)
		}
	}
	fmt.Fprintf(w, "optimal window: %d (objective %.4f)\n", res.BestWindow, res.BestObjective)
}
