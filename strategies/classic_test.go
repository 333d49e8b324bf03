package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

func TestClassicDoesNotConsumeExitCandle(t *testing.T) {
	p := NewClassic(config.Default().Strategy)
	assert.False(t, p.ExitConsumesCandle())
}

func TestClassicEntryIsRSIOnly(t *testing.T) {
	p := NewClassic(config.Default().Strategy)

	oversold := makeFrame(t, barsFromCloses(declineCloses(30, 100, 0.001), 1000), indicators.ColRSI)
	assert.True(t, p.ShouldEnter(oversold, 20))

	overbought := makeFrame(t, barsFromCloses(riseCloses(30, 100, 0.01), 1000), indicators.ColRSI)
	assert.False(t, p.ShouldEnter(overbought, 20))
}

func TestClassicExitReasons(t *testing.T) {
	p := NewClassic(config.Default().Strategy)

	rising := makeFrame(t, barsFromCloses(riseCloses(30, 100, 0.01), 1000), indicators.ColRSI)
	led := fixedLedger(10000)
	require.True(t, led.Buy(rising.At(20).Close, testBase, 80, false, ""))
	reason, ok := p.ShouldExit(rising, 20, led)
	require.True(t, ok)
	assert.Equal(t, "RSI", reason)

	falling := makeFrame(t, barsFromCloses(declineCloses(30, 100, 0.001), 1000), indicators.ColRSI)
	led2 := fixedLedger(10000)
	require.True(t, led2.Buy(falling.At(20).Close*0.90, testBase, 20, false, ""))
	reason, ok = p.ShouldExit(falling, 20, led2)
	require.True(t, ok)
	assert.Equal(t, "TAKE_PROFIT", reason)
}

func TestClassicAddOnRedOversoldCandle(t *testing.T) {
	p := NewClassic(config.Default().Strategy)
	f := makeFrame(t, barsFromCloses(declineCloses(30, 100, 0.001), 1000), indicators.ColRSI)

	led := fixedLedger(10000)
	require.True(t, led.Buy(f.At(20).Close, testBase, 20, false, ""))
	_, ok := p.ShouldDCA(f, 20, led)
	assert.True(t, ok)

	ts := testBase.Add(time.Hour)
	require.True(t, led.Buy(f.At(20).Close, ts, 20, true, ""))
	require.True(t, led.Buy(f.At(20).Close, ts, 20, true, ""))
	_, ok = p.ShouldDCA(f, 20, led)
	assert.False(t, ok, "third add blocked at the cap")
}
