package indicators

import "math"

// PSARConfig holds the parabolic SAR acceleration-factor schedule.
type PSARConfig struct {
	AFStart     float64
	AFIncrement float64
	AFMax       float64
}

// DefaultPSAR is the conventional 0.02/0.02/0.2 schedule.
var DefaultPSAR = PSARConfig{AFStart: 0.02, AFIncrement: 0.02, AFMax: 0.2}

// PSAR computes the parabolic stop-and-reverse line and its trend direction
// (+1 uptrend, -1 downtrend). The series is seeded in an uptrend at the first
// bar's low.
func PSAR(highs, lows []float64, cfg PSARConfig) (psar []float64, trend []int) {
	n := len(highs)
	psar = make([]float64, n)
	trend = make([]int, n)
	if n == 0 {
		return psar, trend
	}

	psar[0] = lows[0]
	trend[0] = 1
	af := cfg.AFStart
	ep := highs[0]

	for i := 1; i < n; i++ {
		prevSAR := psar[i-1]
		if trend[i-1] == 1 {
			sar := prevSAR + af*(ep-prevSAR)
			sar = math.Min(sar, math.Min(lows[i-1], lows[i]))
			if sar >= lows[i] {
				// Reverse to downtrend.
				trend[i] = -1
				psar[i] = ep
				af = cfg.AFStart
				ep = lows[i]
			} else {
				trend[i] = 1
				psar[i] = sar
				if highs[i] > ep {
					ep = highs[i]
					af = math.Min(af+cfg.AFIncrement, cfg.AFMax)
				}
			}
		} else {
			sar := prevSAR - af*(prevSAR-ep)
			sar = math.Max(sar, math.Max(highs[i-1], highs[i]))
			if sar <= highs[i] {
				// Reverse to uptrend.
				trend[i] = 1
				psar[i] = ep
				af = cfg.AFStart
				ep = highs[i]
			} else {
				trend[i] = -1
				psar[i] = sar
				if lows[i] < ep {
					ep = lows[i]
					af = math.Min(af+cfg.AFIncrement, cfg.AFMax)
				}
			}
		}
	}
	return psar, trend
}
