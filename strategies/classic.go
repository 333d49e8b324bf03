package strategies

import (
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Classic is the original percent-of-cash variant: RSI-only signals, no
// filters, and exits that do not consume the candle, so a sell and a fresh
// buy may land on the same bar.
type Classic struct {
	engine.Base
	cfg config.Strategy
}

func NewClassic(s config.Strategy) *Classic { return &Classic{cfg: s} }

func (p *Classic) Name() string { return NameClassic }

func (p *Classic) Columns() []string { return []string{indicators.ColRSI} }

func (p *Classic) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColRSI)
}

func (p *Classic) ExitConsumesCandle() bool { return false }

func (p *Classic) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if f.Value(indicators.ColRSI, i) >= p.cfg.RSISell {
		return "RSI", true
	}
	if led.CurrentProfitPct(f.At(i).Close) >= p.cfg.TakeProfit*100 {
		return "TAKE_PROFIT", true
	}
	return "", false
}

func (p *Classic) ShouldEnter(f *indicators.Frame, i int) bool {
	return f.Value(indicators.ColRSI, i) <= p.cfg.RSIBuy
}

func (p *Classic) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if led.DCACount() >= p.cfg.MaxDCA {
		return "", false
	}
	if !f.At(i).IsRed() || f.Value(indicators.ColRSI, i) >= p.cfg.RSIBuy {
		return "", false
	}
	return "", true
}
