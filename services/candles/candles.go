// Package candles holds the OHLCV series model shared by the ingestion
// tooling and the backtest engine.
package candles

import (
	"fmt"
	"sort"
	"time"
)

// Candle is one OHLCV bar. Immutable once the owning Series is built.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// IsRed reports a bearish candle (close below open).
func (c Candle) IsRed() bool { return c.Close < c.Open }

// IsGreen reports a bullish candle (close above open).
func (c Candle) IsGreen() bool { return c.Close > c.Open }

// Series is an ordered candle sequence with strictly increasing timestamps.
type Series struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
}

// NewSeries sorts bars by timestamp, deduplicates identical timestamps
// (keeping the last occurrence) and validates the result.
func NewSeries(symbol, timeframe string, bars []Candle) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series %s/%s: no candles", symbol, timeframe)
	}
	sorted := make([]Candle, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	uniq := sorted[:0]
	for _, b := range sorted {
		if len(uniq) > 0 && b.Timestamp.Equal(uniq[len(uniq)-1].Timestamp) {
			uniq[len(uniq)-1] = b
			continue
		}
		uniq = append(uniq, b)
	}

	s := &Series{Symbol: symbol, Timeframe: timeframe, Candles: uniq}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Series) validate() error {
	for i, c := range s.Candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("series %s/%s: non-positive price at bar %d (%s)",
				s.Symbol, s.Timeframe, i, c.Timestamp.Format(time.RFC3339))
		}
		if c.Volume < 0 {
			return fmt.Errorf("series %s/%s: negative volume at bar %d", s.Symbol, s.Timeframe, i)
		}
		if c.High < c.Low {
			return fmt.Errorf("series %s/%s: high < low at bar %d", s.Symbol, s.Timeframe, i)
		}
	}
	return nil
}

// Len returns the number of candles.
func (s *Series) Len() int { return len(s.Candles) }

// At returns the candle at index i.
func (s *Series) At(i int) Candle { return s.Candles[i] }

// Last returns the final candle of the series.
func (s *Series) Last() Candle { return s.Candles[len(s.Candles)-1] }

// Closes extracts the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume column.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}
