package strategies

import (
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Short is the mirrored fixed-amount variant: it opens short on overbought
// RSI, adds on green candles above the average entry, and covers on stop,
// take or RSI falling back to the cover level.
type Short struct {
	engine.Base
	cfg config.Strategy
}

func NewShort(s config.Strategy) *Short { return &Short{cfg: s} }

func (p *Short) Name() string { return NameShort }

func (p *Short) Columns() []string {
	return []string{indicators.ColRSI, indicators.ColEMA20, indicators.ColVolumeMA}
}

func (p *Short) Direction() engine.Side { return engine.SideShort }

func (p *Short) EndReason() string { return engine.ReasonShortEndOfData }

func (p *Short) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColRSI, indicators.ColEMA20)
}

func (p *Short) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	profitPct := led.CurrentProfitPct(f.At(i).Close)
	if profitPct <= -p.cfg.StopLoss*100 {
		return "SHORT_STOP_LOSS", true
	}
	if profitPct >= p.cfg.TakeProfit*100 {
		return "SHORT_TAKE_PROFIT", true
	}
	if f.Value(indicators.ColRSI, i) <= p.cfg.RSICover {
		return "SHORT_RSI_EXIT", true
	}
	return "", false
}

func (p *Short) ShouldEnter(f *indicators.Frame, i int) bool {
	if f.Value(indicators.ColRSI, i) < p.cfg.RSIShortEntry {
		return false
	}
	c := f.At(i)
	if p.cfg.UseTrendFilter && c.Close < f.Value(indicators.ColEMA20, i)*1.05 {
		return false
	}
	if p.cfg.UseVolumeFilter && c.Volume < f.Value(indicators.ColVolumeMA, i)*0.8 {
		return false
	}
	return true
}

func (p *Short) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if !p.ShouldEnter(f, i) {
		return "", false
	}
	c := f.At(i)
	if !c.IsGreen() || led.DCACount() >= p.cfg.MaxDCA {
		return "", false
	}
	if c.Close <= led.AvgEntryPrice() {
		return "", false
	}
	return "", true
}
