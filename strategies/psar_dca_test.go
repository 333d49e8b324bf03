package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

func psarCols() []string {
	return []string{indicators.ColPSAR, indicators.ColPSARTrend}
}

// psarFlipFrame flips the SAR down on the second bar and back up on the
// third: trend reads 1, -1, 1.
func psarFlipFrame(t *testing.T) *indicators.Frame {
	bars := []candles.Candle{
		{Timestamp: testBase, Open: 100.2, High: 101, Low: 100, Close: 100.8, Volume: 1000},
		{Timestamp: testBase.Add(time.Hour), Open: 99.8, High: 100, Low: 98, Close: 98.5, Volume: 1000},
		{Timestamp: testBase.Add(2 * time.Hour), Open: 104.2, High: 105, Low: 104, Close: 104.8, Volume: 1000},
	}
	return makeFrame(t, bars, psarCols()...)
}

func TestPSARDCAEnterOnUpFlip(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	f := psarFlipFrame(t)

	assert.True(t, p.Warm(f, 0))

	// No previous trend observed yet, so nothing fires.
	assert.False(t, p.ShouldEnter(f, 1))

	p.Observe(f, 1, fixedLedger(10000))
	assert.True(t, p.ShouldEnter(f, 2))
	assert.Equal(t, "PSAR_BUY_SIGNAL", p.EntryReason())
}

func TestPSARDCAExitOnDownFlip(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	f := psarFlipFrame(t)

	led := fixedLedger(10000)
	require.True(t, led.Buy(f.At(0).Open, testBase, 50, false, "PSAR_BUY_SIGNAL"))
	p.Observe(f, 0, led)

	reason, ok := p.ShouldExit(f, 1, led)
	require.True(t, ok)
	assert.Equal(t, "PSAR_SELL_SIGNAL", reason)
}

func TestPSARDCATakeProfitBeatsFlip(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	f := psarFlipFrame(t)

	led := fixedLedger(10000)
	require.True(t, led.Buy(93, testBase, 50, false, "PSAR_BUY_SIGNAL"))
	p.Observe(f, 0, led)

	// +5.9% at the close outranks the trend flip on the same candle.
	reason, ok := p.ShouldExit(f, 1, led)
	require.True(t, ok)
	assert.Equal(t, "TAKE_PROFIT_5%", reason)
}

func TestPSARDCATradesAtOpen(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	f := psarFlipFrame(t)
	assert.Equal(t, f.At(1).Open, p.TradePrice(f, 1))
}

func TestPSARDCAAddMeasuredAtOpen(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	bars := []candles.Candle{
		{Timestamp: testBase, Open: 100, High: 101, Low: 99.5, Close: 100.5, Volume: 1000},
		{Timestamp: testBase.Add(time.Hour), Open: 105.2, High: 106, Low: 105, Close: 105.5, Volume: 1000},
		{Timestamp: testBase.Add(2 * time.Hour), Open: 94, High: 95, Low: 93.5, Close: 94.2, Volume: 1000},
	}
	f := makeFrame(t, bars, psarCols()...)

	led := fixedLedger(10000)
	require.True(t, led.Buy(100, testBase, 50, false, "PSAR_BUY_SIGNAL"))

	reason, ok := p.ShouldDCA(f, 1, led)
	require.True(t, ok)
	assert.Equal(t, "DCA_UP_5%", reason)

	_, ok = p.ShouldDCA(f, 1, led)
	assert.False(t, ok, "repeat in the same direction")

	reason, ok = p.ShouldDCA(f, 2, led)
	require.True(t, ok)
	assert.Equal(t, "DCA_DOWN_5%", reason)
}

func TestPSARDCAObserveClearsStateWhenFlat(t *testing.T) {
	p := NewPSARDCA(config.Default().Strategy)
	f := psarFlipFrame(t)

	led := fixedLedger(10000)
	require.True(t, led.Buy(100, testBase, 50, false, ""))
	p.Observe(f, 0, led)
	p.lastDCADir = "up"

	require.True(t, led.Sell(101, testBase.Add(time.Hour), 50, "TAKE_PROFIT_5%"))
	p.Observe(f, 1, led)
	assert.Equal(t, "", p.lastDCADir)
}
