package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

type panicPolicy struct{ scriptPolicy }

func (p *panicPolicy) ShouldEnter(f *indicators.Frame, i int) bool {
	panic("boom")
}

func poolSeries(t *testing.T, symbol string) *candles.Series {
	t.Helper()
	bars := make([]candles.Candle, 8)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = candles.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price + 1, Low: price - 1, Close: price, Volume: 10,
		}
	}
	s, err := candles.NewSeries(symbol, "1h", bars)
	require.NoError(t, err)
	return s
}

func TestPoolIsolatesPanics(t *testing.T) {
	good := Unit{
		Series: poolSeries(t, "GOOD"),
		Policy: &scriptPolicy{enters: map[int]bool{2: true}},
		Ledger: testLedgerCfg,
		Params: indicators.DefaultParams(),
	}
	bad := Unit{
		Series: poolSeries(t, "BAD"),
		Policy: &panicPolicy{},
		Ledger: testLedgerCfg,
		Params: indicators.DefaultParams(),
	}

	results := Pool{Workers: 2}.RunAll([]Unit{good, bad})
	require.Len(t, results, 2)

	var ok, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, "BAD", r.Err.Symbol)
			assert.Contains(t, r.Err.Error(), "panic")
		} else {
			ok++
			require.NotNil(t, r.Run)
			assert.Equal(t, "GOOD", r.Run.Symbol)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}

func TestPoolEmptyUnits(t *testing.T) {
	assert.Empty(t, Pool{}.RunAll(nil))
}
