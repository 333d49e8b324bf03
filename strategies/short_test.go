package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

func shortCols() []string {
	return []string{indicators.ColRSI, indicators.ColEMA20, indicators.ColVolumeMA}
}

func TestShortDirectionAndEndReason(t *testing.T) {
	p := NewShort(config.Default().Strategy)
	assert.Equal(t, engine.SideShort, p.Direction())
	assert.Equal(t, engine.ReasonShortEndOfData, p.EndReason())
}

func TestShortEnterOnExtendedRally(t *testing.T) {
	p := NewShort(config.Default().Strategy)

	// A steep climb pins RSI at 100 and stretches the close more than 5%
	// above EMA20.
	f := makeFrame(t, barsFromCloses(riseCloses(50, 100, 0.01), 1000), shortCols()...)
	assert.True(t, p.ShouldEnter(f, 40))
}

func TestShortTrendFilterBlocksSlowGrind(t *testing.T) {
	cfg := config.Default().Strategy
	// A slow grind keeps the close hugging EMA20.
	f := makeFrame(t, barsFromCloses(riseCloses(50, 100, 0.001), 1000), shortCols()...)

	assert.False(t, NewShort(cfg).ShouldEnter(f, 40))

	cfg.UseTrendFilter = false
	assert.True(t, NewShort(cfg).ShouldEnter(f, 40))
}

func TestShortVolumeFilterBlocksThinBar(t *testing.T) {
	cfg := config.Default().Strategy
	bars := barsFromCloses(riseCloses(50, 100, 0.01), 1000)
	bars[40].Volume = 500
	f := makeFrame(t, bars, shortCols()...)

	assert.False(t, NewShort(cfg).ShouldEnter(f, 40))
}

func TestShortExitReasons(t *testing.T) {
	p := NewShort(config.Default().Strategy)
	f := makeFrame(t, barsFromCloses([]float64{100, 103.1, 94}, 1000), shortCols()...)

	led := fixedLedger(10000)
	require.True(t, led.ShortSell(100, testBase, 80, false, ""))

	// The price rising against the short is a stop.
	reason, ok := p.ShouldExit(f, 1, led)
	require.True(t, ok)
	assert.Equal(t, "SHORT_STOP_LOSS", reason)

	reason, ok = p.ShouldExit(f, 2, led)
	require.True(t, ok)
	assert.Equal(t, "SHORT_TAKE_PROFIT", reason)
}

func TestShortRSICoverExit(t *testing.T) {
	p := NewShort(config.Default().Strategy)
	f := makeFrame(t, barsFromCloses(declineCloses(30, 100, 0.001), 1000), shortCols()...)

	led := fixedLedger(10000)
	close := f.At(20).Close
	require.True(t, led.ShortSell(close*1.01, testBase, 80, false, ""))

	reason, ok := p.ShouldExit(f, 20, led)
	require.True(t, ok)
	assert.Equal(t, "SHORT_RSI_EXIT", reason)
}

func TestShortAddAboveAverage(t *testing.T) {
	p := NewShort(config.Default().Strategy)
	f := makeFrame(t, barsFromCloses(riseCloses(50, 100, 0.01), 1000), shortCols()...)
	close := f.At(40).Close

	// Green candle above the average short entry.
	led := fixedLedger(10000)
	require.True(t, led.ShortSell(close*0.95, testBase, 80, false, ""))
	_, ok := p.ShouldDCA(f, 40, led)
	assert.True(t, ok)

	led2 := fixedLedger(10000)
	require.True(t, led2.ShortSell(close*1.05, testBase, 80, false, ""))
	_, ok = p.ShouldDCA(f, 40, led2)
	assert.False(t, ok, "below the average entry")
}

func TestShortAddCapped(t *testing.T) {
	p := NewShort(config.Default().Strategy)
	f := makeFrame(t, barsFromCloses(riseCloses(50, 100, 0.01), 1000), shortCols()...)
	close := f.At(40).Close

	led := fixedLedger(10000)
	ts := testBase
	require.True(t, led.ShortSell(close*0.90, ts, 80, false, ""))
	require.True(t, led.ShortSell(close*0.94, ts.Add(time.Hour), 80, true, ""))
	require.True(t, led.ShortSell(close*0.97, ts.Add(2*time.Hour), 80, true, ""))

	_, ok := p.ShouldDCA(f, 40, led)
	assert.False(t, ok)
}
