package candles

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// SyntheticIntraday expands daily candles into timeframeHours bars by chaining
// opens, interpolating closes along the daily body and adding seeded noise
// clamped to the daily range. Used when an exchange only publishes daily data
// but a strategy is tuned for intraday timeframes. Deterministic for a given
// seed.
func SyntheticIntraday(daily *Series, timeframeHours int, seed int64) (*Series, error) {
	if timeframeHours <= 0 || 24%timeframeHours != 0 {
		return nil, fmt.Errorf("timeframe %dh does not divide a day", timeframeHours)
	}
	perDay := 24 / timeframeHours
	rng := rand.New(rand.NewSource(seed))

	out := make([]Candle, 0, daily.Len()*perDay)
	for _, day := range daily.Candles {
		for i := 0; i < perDay; i++ {
			ts := day.Timestamp.Add(time.Duration(i*timeframeHours) * time.Hour)

			open := day.Open
			if i > 0 {
				open = out[len(out)-1].Close
			}

			var closeP float64
			if i == perDay-1 {
				closeP = day.Close
			} else {
				progress := float64(i) / float64(perDay)
				closeP = day.Open + (day.Close-day.Open)*(progress+1/float64(perDay))
				volatility := (day.High - day.Low) / float64(perDay) * 0.5
				closeP += rng.NormFloat64() * volatility * 0.3
				closeP = clamp(closeP, day.Low, day.High)
			}

			high := math.Max(open, closeP) * (1 + math.Abs(rng.NormFloat64())*0.01)
			high = math.Min(high, day.High)
			low := math.Min(open, closeP) * (1 - math.Abs(rng.NormFloat64())*0.01)
			low = math.Max(low, day.Low)
			// Keep the bar internally consistent after clamping.
			high = math.Max(high, math.Max(open, closeP))
			low = math.Min(low, math.Min(open, closeP))

			volume := day.Volume / float64(perDay) * (1 + rng.NormFloat64()*0.2)
			if volume < 0 {
				volume = 0
			}

			out = append(out, Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: closeP, Volume: volume})
		}
	}
	return NewSeries(daily.Symbol, fmt.Sprintf("%dh", timeframeHours), out)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
