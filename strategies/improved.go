package strategies

import (
	"fmt"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Improved trades oversold dips only inside an EMA50/EMA200 uptrend and
// spaces DCA legs by minimum drops from the average entry (3%) and from the
// previous leg (2%). Parameters are expected to be timeframe-adjusted via
// Strategy.AdjustForTimeframe before construction.
type Improved struct {
	engine.Base
	cfg config.Strategy
}

func NewImproved(s config.Strategy) *Improved { return &Improved{cfg: s} }

func (p *Improved) Name() string { return NameImproved }

func (p *Improved) Columns() []string {
	return []string{indicators.ColRSI, indicators.ColEMA50, indicators.ColEMA200, indicators.ColVolumeMA}
}

func (p *Improved) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColRSI, indicators.ColEMA50, indicators.ColEMA200)
}

func (p *Improved) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	profitPct := led.CurrentProfitPct(f.At(i).Close)
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

func (p *Improved) uptrend(f *indicators.Frame, i int) bool {
	close := f.At(i).Close
	ema50 := f.Value(indicators.ColEMA50, i)
	ema200 := f.Value(indicators.ColEMA200, i)
	return close > ema200 && ema50 > ema200
}

func (p *Improved) ShouldEnter(f *indicators.Frame, i int) bool {
	if f.Value(indicators.ColRSI, i) > p.cfg.RSIBuy || !p.uptrend(f, i) {
		return false
	}
	c := f.At(i)
	if p.cfg.UseVolumeFilter && c.Volume < f.Value(indicators.ColVolumeMA, i)*0.8 {
		return false
	}
	return true
}

func (p *Improved) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if !p.ShouldEnter(f, i) {
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
	if dropFromEntry < 3.0 || dropFromLast < 2.0 {
		return "", false
	}
	return "", true
}
