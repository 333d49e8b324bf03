package indicators

import (
	"fmt"
	"math"
	"sort"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
)

// Column names attachable to a Frame.
const (
	ColRSI       = "rsi"
	ColEMA20     = "ema20"
	ColEMA50     = "ema50"
	ColEMA200    = "ema200"
	ColSMA20     = "sma20"
	ColVolumeMA  = "volume_ma"
	ColATR       = "atr"
	ColADX       = "adx"
	ColPlusDI    = "plus_di"
	ColMinusDI   = "minus_di"
	ColPSAR      = "psar"
	ColPSARTrend = "psar_trend"
)

// Params configures the indicator derivations for one annotation pass.
type Params struct {
	RSIPeriod      int
	ATRPeriod      int
	ADXPeriod      int
	VolumeMAWindow int
	PSAR           PSARConfig
}

// DefaultParams mirrors the research defaults: RSI(14), ATR(14), ADX(14),
// volume MA(20), PSAR 0.02/0.02/0.2.
func DefaultParams() Params {
	return Params{RSIPeriod: 14, ATRPeriod: 14, ADXPeriod: 14, VolumeMAWindow: 20, PSAR: DefaultPSAR}
}

// Frame is an annotated candle series. It is built once per backtest run and
// never mutated afterwards, so concurrent runs each annotate their own copy.
type Frame struct {
	Series *candles.Series
	cols   map[string][]float64
}

// Annotate computes the requested columns over the series. Unknown column
// names are an error; requesting a column twice is harmless.
func Annotate(s *candles.Series, p Params, columns ...string) (*Frame, error) {
	f := &Frame{Series: s, cols: make(map[string][]float64, len(columns))}

	n := s.Len()
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range s.Candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	closes := s.Closes()

	for _, col := range columns {
		if _, done := f.cols[col]; done {
			continue
		}
		switch col {
		case ColRSI:
			f.cols[col] = RSI(closes, p.RSIPeriod)
		case ColEMA20:
			f.cols[col] = EMA(closes, 20)
		case ColEMA50:
			f.cols[col] = EMA(closes, 50)
		case ColEMA200:
			f.cols[col] = EMA(closes, 200)
		case ColSMA20:
			f.cols[col] = SMA(closes, 20)
		case ColVolumeMA:
			f.cols[col] = SMA(s.Volumes(), p.VolumeMAWindow)
		case ColATR:
			f.cols[col] = ATR(highs, lows, closes, p.ATRPeriod)
		case ColADX, ColPlusDI, ColMinusDI:
			adx, plus, minus := ADX(highs, lows, closes, p.ADXPeriod)
			f.cols[ColADX] = adx
			f.cols[ColPlusDI] = plus
			f.cols[ColMinusDI] = minus
		case ColPSAR, ColPSARTrend:
			psar, trend := PSAR(highs, lows, p.PSAR)
			trendF := make([]float64, n)
			for i, t := range trend {
				trendF[i] = float64(t)
			}
			f.cols[ColPSAR] = psar
			f.cols[ColPSARTrend] = trendF
		default:
			return nil, fmt.Errorf("unknown indicator column %q", col)
		}
	}
	return f, nil
}

// Len returns the number of candles in the frame.
func (f *Frame) Len() int { return f.Series.Len() }

// At returns the candle at index i.
func (f *Frame) At(i int) candles.Candle { return f.Series.At(i) }

// Col returns a full column; nil when absent.
func (f *Frame) Col(name string) []float64 { return f.cols[name] }

// Columns returns the computed column names, sorted.
func (f *Frame) Columns() []string {
	names := make([]string, 0, len(f.cols))
	for name := range f.cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns column `name` at bar i, NaN when the column is absent.
func (f *Frame) Value(name string, i int) float64 {
	col, ok := f.cols[name]
	if !ok {
		return NaN
	}
	return col[i]
}

// Defined reports whether every named column has a non-NaN value at bar i.
func (f *Frame) Defined(i int, names ...string) bool {
	for _, name := range names {
		if math.IsNaN(f.Value(name, i)) {
			return false
		}
	}
	return true
}

// LatestAt returns the index of the most recent candle at or before ts, or -1.
// Used for higher-timeframe confirmation lookups.
func (f *Frame) LatestAt(ts int64) int {
	lo, hi, ans := 0, f.Len()-1, -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if f.At(mid).Timestamp.UnixMilli() <= ts {
			ans = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return ans
}
