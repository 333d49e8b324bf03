package strategies

import (
	"fmt"
	"math"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

const (
	breakEvenArmPct  = 3.0
	advTrailingDrop  = 0.02
	supportLookback  = 20
	regimeLookback   = 50
	confirmRequired  = 3
	advVolumeFactor  = 1.2
	advDropFromEntry = 4.0
	advDropFromLast  = 3.0
)

// Advanced layers five entry gates on top of the oversold signal: a
// three-candle EMA200 confirmation count, proximity to the 20-bar low,
// a 50-bar regime filter, optional higher-timeframe confirmation, and a
// raised volume threshold. Exits add a break-even stop armed at +3% and a
// 2% trailing stop once the take-profit level is reached.
type Advanced struct {
	engine.Base
	cfg    config.Strategy
	higher *indicators.Frame

	confirm   int
	breakEven bool
	prevSide  engine.Side
}

func NewAdvanced(s config.Strategy, higher *indicators.Frame) *Advanced {
	return &Advanced{cfg: s, higher: higher}
}

func (p *Advanced) Name() string { return NameAdvanced }

func (p *Advanced) Columns() []string {
	return []string{
		indicators.ColRSI, indicators.ColEMA50, indicators.ColEMA200,
		indicators.ColSMA20, indicators.ColVolumeMA,
	}
}

func (p *Advanced) Reset() {
	p.confirm = 0
	p.breakEven = false
	p.prevSide = engine.SideFlat
}

func (p *Advanced) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColRSI, indicators.ColEMA50, indicators.ColEMA200)
}

func (p *Advanced) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	close := f.At(i).Close
	profitPct := led.CurrentProfitPct(close)
	avg := led.AvgEntryPrice()

	if profitPct >= breakEvenArmPct {
		p.breakEven = true
	}

	if profitPct >= p.cfg.TakeProfit*100 {
		if close < led.HighestPrice()*(1-advTrailingDrop) {
			return fmt.Sprintf("TRAILING_STOP_%.0f%%", p.cfg.TakeProfit*100), true
		}
	}
	if p.breakEven && close < avg {
		return "BREAK_EVEN_STOP", true
	}
	if profitPct <= -p.cfg.StopLoss*100 {
		return fmt.Sprintf("STOP_LOSS_%.1f%%", p.cfg.StopLoss*100), true
	}
	if profitPct >= p.cfg.TakeProfit*100 {
		return fmt.Sprintf("TAKE_PROFIT_%.0f%%", p.cfg.TakeProfit*100), true
	}
	if f.Value(indicators.ColRSI, i) >= p.cfg.RSISell {
		return "RSI_SELL", true
	}
	return "", false
}

// canBuy runs the full entry gauntlet. It mutates the confirmation counter,
// so it must be evaluated at most once per candle.
func (p *Advanced) canBuy(f *indicators.Frame, i int) bool {
	c := f.At(i)
	if f.Value(indicators.ColRSI, i) > p.cfg.RSIBuy {
		return false
	}

	ema50 := f.Value(indicators.ColEMA50, i)
	ema200 := f.Value(indicators.ColEMA200, i)
	if c.Close > ema200 && ema50 > ema200 {
		p.confirm++
	} else {
		p.confirm = 0
		return false
	}
	if p.confirm < confirmRequired {
		return false
	}

	if !p.nearSupport(f, i) {
		return false
	}
	if p.strongDowntrend(f, i) {
		return false
	}
	if !p.higherFrameUptrend(c.Timestamp.UnixMilli()) {
		return false
	}
	if c.Volume < f.Value(indicators.ColVolumeMA, i)*advVolumeFactor {
		return false
	}
	return true
}

// nearSupport reports whether the close sits within 2% of the lowest low of
// the preceding 20 bars. Passes during the first 20 bars.
func (p *Advanced) nearSupport(f *indicators.Frame, i int) bool {
	if i < supportLookback {
		return true
	}
	low := math.Inf(1)
	for j := i - supportLookback; j < i; j++ {
		if l := f.At(j).Low; l < low {
			low = l
		}
	}
	return math.Abs(f.At(i).Close-low)/low <= 0.02
}

// strongDowntrend flags a >5% fall over the previous 50 bars with EMA50
// under EMA200 and price under EMA50, measured at the bar before i.
func (p *Advanced) strongDowntrend(f *indicators.Frame, i int) bool {
	if i < regimeLookback {
		return false
	}
	first := f.At(i - regimeLookback).Close
	last := f.At(i - 1).Close
	change := (last - first) / first
	ema50 := f.Value(indicators.ColEMA50, i-1)
	ema200 := f.Value(indicators.ColEMA200, i-1)
	return change < -0.05 && ema50 < ema200 && last < ema50
}

func (p *Advanced) higherFrameUptrend(tsMilli int64) bool {
	if p.higher == nil || p.higher.Len() == 0 {
		return true
	}
	idx := p.higher.LatestAt(tsMilli)
	if idx < 0 {
		return true
	}
	if !p.higher.Defined(idx, indicators.ColEMA50, indicators.ColEMA200) {
		return true
	}
	close := p.higher.At(idx).Close
	ema50 := p.higher.Value(indicators.ColEMA50, idx)
	ema200 := p.higher.Value(indicators.ColEMA200, idx)
	return close > ema200 && ema50 > ema200
}

func (p *Advanced) ShouldEnter(f *indicators.Frame, i int) bool {
	return p.canBuy(f, i)
}

func (p *Advanced) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if !p.canBuy(f, i) {
		return "", false
	}
	c := f.At(i)
	if led.DCACount() >= p.cfg.MaxDCA || !c.IsRed() {
		return "", false
	}
	avg := led.AvgEntryPrice()
	dropFromEntry := (avg - c.Close) / avg * 100
	dropFromLast := 0.0
	if last := led.LastLegPrice(); last > 0 {
		dropFromLast = (last - c.Close) / last * 100
	}
	if dropFromEntry < advDropFromEntry || dropFromLast < advDropFromLast {
		return "", false
	}
	if c.Close <= f.Value(indicators.ColEMA200, i) {
		return "", false
	}
	return "", true
}

// Observe resets the confirmation count and stop state on position
// transitions: a successful fresh entry or a close back to flat. A rejected
// entry order leaves the counter accumulating.
func (p *Advanced) Observe(f *indicators.Frame, i int, led *engine.Ledger) {
	if p.prevSide != led.Side() {
		p.confirm = 0
		p.breakEven = false
	}
	p.prevSide = led.Side()
}
