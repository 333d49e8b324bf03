package candles

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeframe converts labels like "15m", "1h", "4H", "12h", "1d" into a
// duration. A bare number means minutes.
func ParseTimeframe(label string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	mult := time.Minute
	switch {
	case strings.HasSuffix(s, "min"):
		s = strings.TrimSuffix(s, "min")
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		s = strings.TrimSuffix(s, "h")
		mult = time.Hour
	case strings.HasSuffix(s, "d"):
		s = strings.TrimSuffix(s, "d")
		mult = 24 * time.Hour
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("unsupported timeframe %q", label)
	}
	return time.Duration(n) * mult, nil
}

// Resample aggregates the series into buckets of the given width aligned to
// epoch multiples: open=first, high=max, low=min, close=last, volume=sum.
// Empty buckets are dropped.
func Resample(s *Series, timeframe string) (*Series, error) {
	width, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	var out []Candle
	var cur *Candle
	var curBucket int64

	for _, c := range s.Candles {
		bucket := c.Timestamp.UnixMilli() / width.Milliseconds()
		if cur == nil || bucket != curBucket {
			if cur != nil {
				out = append(out, *cur)
			}
			start := time.UnixMilli(bucket * width.Milliseconds()).UTC()
			cc := Candle{Timestamp: start, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			cur = &cc
			curBucket = bucket
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return NewSeries(s.Symbol, timeframe, out)
}

// Cadence reports the dominant spacing between consecutive candles, derived
// from the most common delta over (at most) the first 2000 bars.
func (s *Series) Cadence() time.Duration {
	if len(s.Candles) < 2 {
		return 0
	}
	limit := len(s.Candles)
	if limit > 2000 {
		limit = 2000
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < limit; i++ {
		d := s.Candles[i].Timestamp.Sub(s.Candles[i-1].Timestamp)
		if d > 0 {
			counts[d]++
		}
	}
	var best time.Duration
	bestN := -1
	for d, n := range counts {
		if n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
