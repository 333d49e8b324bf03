// Package indicators computes the indicator columns the signal policies read.
//
// Numerical behavior intentionally matches the upstream research code rather
// than textbook definitions: RSI and ADX use simple rolling means of
// gains/losses and directional movement (not Wilder smoothing), and ATR is a
// rolling mean of true range. Warm-up slots are NaN.
package indicators

import "math"

// NaN is the warm-up marker used across all columns.
var NaN = math.NaN()

// RSI computes the relative strength index over closes using a simple rolling
// mean of gains and losses. The first `period` slots are NaN. When the rolling
// loss is zero the value saturates at 100; when both gain and loss are zero
// the slot stays NaN.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := fill(n)
	if period <= 0 || n <= period {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// 0/0 stays undefined, matching the upstream NaN propagation.
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded at the first value with
// alpha = 2/(span+1). No warm-up NaN prefix.
func EMA(values []float64, span int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < n; i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// SMA computes a simple moving average; the first window-1 slots are NaN.
func SMA(values []float64, window int) []float64 {
	n := len(values)
	out := fill(n)
	if window <= 0 || n < window {
		return out
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// TrueRange returns the per-bar true range; the first bar falls back to
// high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
			tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		}
		out[i] = tr
	}
	return out
}

// ATR is a simple rolling mean of true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return SMA(TrueRange(highs, lows, closes), period)
}

func fill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NaN
	}
	return out
}

func rollingMeanSkipFirst(values []float64, window int) []float64 {
	// Rolling mean where index 0 is undefined (diff-style series); the first
	// valid slot is therefore `window`, one later than SMA.
	n := len(values)
	out := fill(n)
	if window <= 0 || n <= window {
		return out
	}
	var sum float64
	for i := 1; i < n; i++ {
		sum += values[i]
		if i > window {
			sum -= values[i-window]
		}
		if i >= window {
			out[i] = sum / float64(window)
		}
	}
	return out
}
