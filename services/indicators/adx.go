package indicators

import "math"

// ADX computes the average directional index plus the ±DI lines, using simple
// rolling means throughout (upstream parity; Wilder smoothing is deliberately
// not used). ADX becomes defined at index 2*period-1 at the earliest.
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(closes)
	adx, plusDI, minusDI = fill(n), fill(n), fill(n)
	if period <= 0 || n <= period {
		return adx, plusDI, minusDI
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		if up := highs[i] - highs[i-1]; up > 0 {
			plusDM[i] = up
		}
		if down := lows[i-1] - lows[i]; down > 0 {
			minusDM[i] = down
		}
	}

	atr := SMA(TrueRange(highs, lows, closes), period)
	plusMean := rollingMeanSkipFirst(plusDM, period)
	minusMean := rollingMeanSkipFirst(minusDM, period)

	dx := fill(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(plusMean[i]) || math.IsNaN(minusMean[i]) || math.IsNaN(atr[i]) || atr[i] == 0 {
			continue
		}
		plusDI[i] = 100 * plusMean[i] / atr[i]
		minusDI[i] = 100 * minusMean[i] / atr[i]
		if sum := plusDI[i] + minusDI[i]; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	// ADX = rolling mean of DX; every value inside the window must be defined.
	for i := period - 1; i < n; i++ {
		total := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(dx[j]) {
				ok = false
				break
			}
			total += dx[j]
		}
		if ok {
			adx[i] = total / float64(period)
		}
	}
	return adx, plusDI, minusDI
}
