// Package signal derives moving-average indicators and discrete position
// states from a price series. This is the entry half of the backtesting
// pipeline: prices in, per-period indicators and a {flat, long} position
// signal out.
package signal

import (
	"errors"
	"fmt"
	"math"

	"meridian/internal/domain"
)

// Position states. The state machine only ever holds or moves between
// these two values.
const (
	Flat = 0
	Long = 1
)

// ErrInsufficientData is returned when a series is shorter than the
// requested lookback window.
var ErrInsufficientData = errors.New("insufficient data")

// Result holds the per-period indicator and signal columns produced by a
// single engine run. All slices are aligned with the input series.
// Warm-up entries in SMA are NaN.
type Result struct {
	SMA       []float64
	EMA       []float64
	Positions []int
}

// Run computes SMA, EMA, and the raw position signal for the series with
// the given lookback window. The position state is local to this call:
// two runs over identical inputs produce bit-identical results and may
// execute concurrently.
func Run(series domain.PriceSeries, window int) (Result, error) {
	if window < 1 {
		return Result{}, fmt.Errorf("window must be >= 1, got %d", window)
	}
	if len(series) < window {
		return Result{}, fmt.Errorf("%w: %d observations for window %d", ErrInsufficientData, len(series), window)
	}

	prices := series.Prices()
	sma := SMA(prices, window)
	ema := EMA(prices, window)
	return Result{
		SMA:       sma,
		EMA:       ema,
		Positions: Positions(prices, sma, ema),
	}, nil
}

// SMA returns the simple moving average of the trailing `window` values,
// aligned to the input length, with NaN for the first window-1 entries.
func SMA(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= window {
			sum -= x[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// EMA returns the exponentially weighted moving average with span
// semantics: alpha = 2/(span+1), and each output is the weighted mean of
// all values up to and including that index, weights (1-alpha)^age,
// normalized by the sum of weights. There is no warm-up gap: the value at
// index 0 equals x[0].
func EMA(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	// Running numerator and weight sum; dividing at each step keeps the
	// effective averaging horizon near `span` periods even early in the
	// series.
	var num, den float64
	for i := range x {
		num = x[i] + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// Positions runs the position state machine over the aligned price and
// indicator columns and returns the raw signal series, one value per
// period, each in {Flat, Long}.
//
// The state starts Flat and transitions:
//
//	Flat → Long when close > SMA and close > EMA
//	Long → Flat when close <= SMA or close <= EMA
//
// A NaN indicator (SMA warm-up) makes the entry condition false, so no
// position can be entered before the window has filled.
func Positions(prices, sma, ema []float64) []int {
	out := make([]int, len(prices))
	state := Flat
	for i := range prices {
		close, s, e := prices[i], sma[i], ema[i]
		switch state {
		case Flat:
			// NaN comparisons are false, which is exactly the recovery
			// policy for an undefined indicator.
			if close > s && close > e {
				state = Long
			}
		case Long:
			if close <= s || close <= e {
				state = Flat
			}
		}
		out[i] = state
	}
	return out
}
