package strategies

import (
	"fmt"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// PSARDCA trades Parabolic SAR trend flips. Signals compare the current
// trend against the previous candle's, so nothing fires on the first bar.
// Entries and exits execute at the candle open; profit checks still use the
// close. Adds follow the shared displacement rule measured at the open.
type PSARDCA struct {
	engine.Base
	cfg config.Strategy

	lastTrend  float64
	havePrev   bool
	lastDCADir string
	prevSide   engine.Side
}

func NewPSARDCA(s config.Strategy) *PSARDCA { return &PSARDCA{cfg: s} }

func (p *PSARDCA) Name() string { return NamePSARDCA }

func (p *PSARDCA) Columns() []string {
	return []string{indicators.ColPSAR, indicators.ColPSARTrend}
}

func (p *PSARDCA) Reset() {
	p.lastTrend = 0
	p.havePrev = false
	p.lastDCADir = ""
	p.prevSide = engine.SideFlat
}

func (p *PSARDCA) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColPSARTrend)
}

func (p *PSARDCA) TradePrice(f *indicators.Frame, i int) float64 {
	return f.At(i).Open
}

func (p *PSARDCA) EntryReason() string { return "PSAR_BUY_SIGNAL" }

func (p *PSARDCA) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if led.CurrentProfitPct(f.At(i).Close) >= p.cfg.TakeProfit*100 {
		return fmt.Sprintf("TAKE_PROFIT_%.0f%%", p.cfg.TakeProfit*100), true
	}
	trend := f.Value(indicators.ColPSARTrend, i)
	if p.havePrev && p.lastTrend == 1 && trend == -1 {
		return "PSAR_SELL_SIGNAL", true
	}
	return "", false
}

func (p *PSARDCA) ShouldEnter(f *indicators.Frame, i int) bool {
	trend := f.Value(indicators.ColPSARTrend, i)
	return p.havePrev && p.lastTrend == -1 && trend == 1
}

func (p *PSARDCA) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	reason, dir, ok := displacementDCA(f.At(i).Open, led, p.lastDCADir, p.cfg.DCAThreshold, p.cfg.MaxDCA)
	if !ok {
		return "", false
	}
	p.lastDCADir = dir
	return reason, true
}

func (p *PSARDCA) Observe(f *indicators.Frame, i int, led *engine.Ledger) {
	p.lastTrend = f.Value(indicators.ColPSARTrend, i)
	p.havePrev = true
	// Filled entries and closes both restart the add sequence.
	if p.prevSide != led.Side() {
		p.lastDCADir = ""
	}
	p.prevSide = led.Side()
}
