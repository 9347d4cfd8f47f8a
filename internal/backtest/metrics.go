package backtest

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"meridian/internal/domain"
	"meridian/internal/signal"
)

// Sentinel errors for metric computation failures.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrZeroVolatility   = errors.New("zero volatility")
)

// VolatilityBasis selects which series feeds the annualized volatility.
type VolatilityBasis int

const (
	// VolatilityFromPrices annualizes the standard deviation of the raw
	// price series. Odd as it is (the usual definition uses returns, not
	// prices), this is the historical contract and stays the default; see
	// VolatilityFromReturns for the corrected form.
	VolatilityFromPrices VolatilityBasis = iota

	// VolatilityFromReturns annualizes the standard deviation of the
	// strategy-return series. Opt-in alternative, never substituted
	// silently.
	VolatilityFromReturns
)

// Metrics is the deterministic performance summary of one backtest run.
type Metrics struct {
	TotalPerformance     float64 `json:"total_performance"`
	CAGR                 float64 `json:"cagr"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

// Analyzer computes Metrics from a strategy-return series at a stated
// sampling frequency.
type Analyzer struct {
	frequency domain.Frequency
	basis     VolatilityBasis
}

// NewAnalyzer creates an Analyzer for the given sampling frequency using
// the default price-based volatility formula.
func NewAnalyzer(frequency domain.Frequency) *Analyzer {
	return &Analyzer{frequency: frequency, basis: VolatilityFromPrices}
}

// WithVolatilityBasis returns a copy of the analyzer using the given
// volatility basis.
func (a *Analyzer) WithVolatilityBasis(basis VolatilityBasis) *Analyzer {
	return &Analyzer{frequency: a.frequency, basis: basis}
}

// Metrics computes the performance summary for the return series produced
// over prices. prices and returns must be aligned; returns may carry NaN
// for missing entries (the first period), which every accumulation skips.
// The row count used for annualization includes missing entries.
func (a *Analyzer) Metrics(prices, returns []float64) (Metrics, error) {
	if countValid(returns) < 2 {
		return Metrics{}, fmt.Errorf("%w: need at least 2 return observations, have %d",
			ErrInsufficientData, countValid(returns))
	}

	h, err := a.frequency.PeriodsPerYear()
	if err != nil {
		return Metrics{}, err
	}

	cum := CumulativeReturns(returns)
	total := lastValid(cum)

	nYears := float64(len(returns)) / h
	const initialEquity = 100
	finalEquity := initialEquity * (1 + total)
	cagr := math.Pow(finalEquity/initialEquity, 1/nYears) - 1

	var sd float64
	switch a.basis {
	case VolatilityFromReturns:
		sd = stat.StdDev(compactValid(returns), nil)
	default:
		sd = stat.StdDev(prices, nil)
	}
	vol := sd * math.Sqrt(h)
	if vol == 0 {
		return Metrics{}, fmt.Errorf("%w: cannot compute sharpe ratio", ErrZeroVolatility)
	}

	return Metrics{
		TotalPerformance:     total,
		CAGR:                 cagr,
		AnnualizedVolatility: vol,
		SharpeRatio:          cagr / vol,
		MaxDrawdown:          MaxDrawdown(cum),
	}, nil
}

// Run executes the full single-window pipeline: indicators and positions,
// lagged strategy returns, then metrics. Each call is a pure function of
// its inputs with no shared state, so concurrent calls are safe.
func Run(series domain.PriceSeries, window int, frequency domain.Frequency) (Metrics, error) {
	res, err := signal.Run(series, window)
	if err != nil {
		return Metrics{}, err
	}
	prices := series.Prices()
	returns := StrategyReturns(prices, res.Positions)
	return NewAnalyzer(frequency).Metrics(prices, returns)
}

// CumulativeReturns returns the running compound return of the series:
// the product of (1+r) minus 1 at each index. NaN inputs yield NaN at
// that index without interrupting the accumulation.
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			continue
		}
		acc *= 1 + r
		out[i] = acc - 1
	}
	return out
}

// Drawdowns returns the per-period drawdown curve over a cumulative
// return series:
//
//	dd[t] = 1 - (1 + cum[t]) / max_{s<=t}(1 + cum[s])
//
// Values are always >= 0; a value of 0 means the equity curve is at a new
// high. NaN inputs yield NaN and do not advance the running maximum.
func Drawdowns(cum []float64) []float64 {
	out := make([]float64, len(cum))
	peak := math.Inf(-1)
	for i, c := range cum {
		if math.IsNaN(c) {
			out[i] = math.NaN()
			continue
		}
		if 1+c > peak {
			peak = 1 + c
		}
		out[i] = 1 - (1+c)/peak
	}
	return out
}

// MaxDrawdown returns the largest drawdown over the whole series, 0 for a
// series that never declines.
func MaxDrawdown(cum []float64) float64 {
	var maxDD float64
	for _, dd := range Drawdowns(cum) {
		if !math.IsNaN(dd) && dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// countValid returns the number of non-NaN entries.
func countValid(x []float64) int {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// compactValid returns the non-NaN entries in order.
func compactValid(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// lastValid returns the last non-NaN entry, or NaN if none exists.
func lastValid(x []float64) float64 {
	for i := len(x) - 1; i >= 0; i-- {
		if !math.IsNaN(x[i]) {
			return x[i]
		}
	}
	return math.NaN()
}
