package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// scriptPolicy fires entries/exits/DCAs at fixed bar indexes.
type scriptPolicy struct {
	Base
	warmFrom  int
	unwarm    map[int]bool
	enters    map[int]bool
	dcas      map[int]string
	exits     map[int]string
	noConsume bool
	short     bool
}

func (p *scriptPolicy) Name() string      { return "script" }
func (p *scriptPolicy) Columns() []string { return []string{indicators.ColRSI} }
func (p *scriptPolicy) Warm(f *indicators.Frame, i int) bool {
	return i >= p.warmFrom && !p.unwarm[i]
}
func (p *scriptPolicy) ShouldExit(f *indicators.Frame, i int, led *Ledger) (string, bool) {
	r, ok := p.exits[i]
	return r, ok
}
func (p *scriptPolicy) ShouldEnter(f *indicators.Frame, i int) bool { return p.enters[i] }
func (p *scriptPolicy) ShouldDCA(f *indicators.Frame, i int, led *Ledger) (string, bool) {
	r, ok := p.dcas[i]
	return r, ok
}
func (p *scriptPolicy) ExitConsumesCandle() bool { return !p.noConsume }
func (p *scriptPolicy) Direction() Side {
	if p.short {
		return SideShort
	}
	return SideLong
}
func (p *scriptPolicy) EndReason() string {
	if p.short {
		return ReasonShortEndOfData
	}
	return ReasonEndOfData
}

func makeFrame(t *testing.T, closes []float64) *indicators.Frame {
	t.Helper()
	bars := make([]candles.Candle, len(closes))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = candles.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000,
		}
	}
	series, err := candles.NewSeries("TEST", "1h", bars)
	require.NoError(t, err)
	frame, err := indicators.Annotate(series, indicators.DefaultParams(), indicators.ColRSI)
	require.NoError(t, err)
	return frame
}

var testLedgerCfg = LedgerConfig{InitialCapital: 1000, Sizing: SizingFixed, FixedAmount: 500}

func TestDriverEntryExitFlow(t *testing.T) {
	closes := []float64{100, 100, 100, 105, 108, 110, 111, 112, 113, 114}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		enters: map[int]bool{2: true},
		exits:  map[int]string{5: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	require.Len(t, run.Trades, 2)
	assert.Equal(t, TradeBuy, run.Trades[0].Type)
	assert.Equal(t, 100.0, run.Trades[0].Price)
	assert.Equal(t, TradeSell, run.Trades[1].Type)
	assert.Equal(t, 110.0, run.Trades[1].Price)
	assert.Equal(t, "TP", run.Trades[1].Reason)

	// 500 invested at 100, sold at 110: +50.
	assert.InDelta(t, 1050.0, run.FinalCash, 1e-9)
	assert.Len(t, run.Equity, len(closes))
	assert.Equal(t, "TEST", run.Symbol)
	assert.Equal(t, "1h", run.Timeframe)
	assert.Equal(t, "script", run.Strategy)
}

func TestDriverWarmupSuppressesSignals(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		warmFrom: 3,
		enters:   map[int]bool{1: true, 3: true},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	// The index-1 signal falls inside warm-up; only index 3 trades.
	entries := 0
	for _, tr := range run.Trades {
		if tr.IsEntry() {
			entries++
			assert.Equal(t, frame.At(3).Timestamp, tr.Timestamp)
		}
	}
	assert.Equal(t, 1, entries)
	assert.Len(t, run.Equity, len(closes))
	// Equity is flat cash during warm-up.
	assert.Equal(t, 1000.0, run.Equity[0].Value)
}

func TestDriverEndOfDataLiquidation(t *testing.T) {
	closes := []float64{100, 100, 100, 90, 95, 98}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{enters: map[int]bool{2: true}}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	require.NotEmpty(t, run.Trades)
	last := run.Trades[len(run.Trades)-1]
	assert.Equal(t, TradeSell, last.Type)
	assert.Equal(t, ReasonEndOfData, last.Reason)
	assert.Equal(t, 98.0, last.Price)
	// 500 at 100 -> 5 units sold at 98 = 490.
	assert.InDelta(t, 990.0, run.FinalCash, 1e-9)
}

func TestDriverShortLifecycle(t *testing.T) {
	closes := []float64{100, 100, 100, 95, 92, 90}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{short: true, enters: map[int]bool{2: true}}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	require.NotEmpty(t, run.Trades)
	assert.Equal(t, TradeShort, run.Trades[0].Type)
	last := run.Trades[len(run.Trades)-1]
	assert.Equal(t, TradeCover, last.Type)
	assert.Equal(t, ReasonShortEndOfData, last.Reason)
	// Short 5 units at 100, covered at 90: +50.
	assert.InDelta(t, 1050.0, run.FinalCash, 1e-9)
}

func TestDriverExitConsumesCandle(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 110, 110}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		enters: map[int]bool{2: true, 4: true},
		exits:  map[int]string{4: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	// Consuming exit: the bar-4 entry signal is ignored.
	require.Len(t, run.Trades, 2)
	assert.Equal(t, TradeSell, run.Trades[1].Type)
}

func TestDriverNonConsumingExitReenters(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 110, 110}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		noConsume: true,
		enters:    map[int]bool{2: true, 4: true},
		exits:     map[int]string{4: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	// Sell and re-buy land on the same candle, then end-of-data flattens.
	require.Len(t, run.Trades, 4)
	assert.Equal(t, TradeSell, run.Trades[1].Type)
	assert.Equal(t, TradeBuy, run.Trades[2].Type)
	assert.Equal(t, run.Trades[1].Timestamp, run.Trades[2].Timestamp)
	assert.Equal(t, ReasonEndOfData, run.Trades[3].Reason)
}

func TestDriverExitFiresOnUnwarmBar(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 110, 110}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		unwarm: map[int]bool{4: true},
		enters: map[int]bool{2: true, 4: true},
		exits:  map[int]string{4: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	// Bar 4 has an indicator gap: the open position still exits there, but
	// the same bar's entry signal stays suppressed.
	require.Len(t, run.Trades, 2)
	assert.Equal(t, TradeSell, run.Trades[1].Type)
	assert.Equal(t, "TP", run.Trades[1].Reason)
	assert.Equal(t, frame.At(4).Timestamp, run.Trades[1].Timestamp)
}

func TestDriverAccountingInvariant(t *testing.T) {
	closes := []float64{100, 100, 100, 90, 85, 120, 120, 115}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		enters: map[int]bool{2: true, 6: true},
		dcas:   map[int]string{3: "ADD", 4: "ADD"},
		exits:  map[int]string{5: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)
	require.NotEmpty(t, run.Trades)

	// At every trade-log point: cash + open-leg capital equals the initial
	// capital plus realized profit so far.
	open, realized := 0.0, 0.0
	for _, tr := range run.Trades {
		if tr.IsEntry() {
			open += tr.Capital
		} else {
			open = 0
			realized += tr.Profit
		}
		assert.InDelta(t, run.InitialCapital+realized, tr.Cash+open, 1e-9, tr.Type)
	}
}

func TestDriverDCAAddsLeg(t *testing.T) {
	closes := []float64{100, 100, 100, 90, 120, 120}
	frame := makeFrame(t, closes)
	policy := &scriptPolicy{
		enters: map[int]bool{2: true},
		dcas:   map[int]string{3: "ADD"},
		exits:  map[int]string{4: "TP"},
	}

	run := NewDriver(policy, testLedgerCfg, nil).Run(frame)

	require.Len(t, run.Trades, 3)
	assert.Equal(t, TradeDCA, run.Trades[1].Type)
	assert.Equal(t, "ADD", run.Trades[1].Reason)
	assert.Equal(t, 90.0, run.Trades[1].Price)
	// Ends flat after the scripted exit.
	assert.InDelta(t, run.FinalCash, run.Equity[len(run.Equity)-1].Value, 1e-9)
}
