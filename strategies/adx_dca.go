package strategies

import (
	"fmt"
	"strings"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// ADXDCA trades directional-strength crossovers: it enters when ADX shows a
// strong trend with +DI above -DI and RSI below overbought, and averages in
// on 5% displacements from the first entry in either direction, never
// repeating the same direction twice in a row.
type ADXDCA struct {
	engine.Base
	cfg config.Strategy

	lastDCADir string
	prevSide   engine.Side
}

func NewADXDCA(s config.Strategy) *ADXDCA { return &ADXDCA{cfg: s} }

func (p *ADXDCA) Name() string { return NameADXDCA }

func (p *ADXDCA) Columns() []string {
	return []string{indicators.ColADX, indicators.ColPlusDI, indicators.ColMinusDI, indicators.ColRSI}
}

func (p *ADXDCA) Reset() {
	p.lastDCADir = ""
	p.prevSide = engine.SideFlat
}

func (p *ADXDCA) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColADX, indicators.ColPlusDI, indicators.ColMinusDI, indicators.ColRSI)
}

func (p *ADXDCA) EntryReason() string { return "ADX_BUY_SIGNAL" }

func (p *ADXDCA) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if led.CurrentProfitPct(f.At(i).Close) >= p.cfg.TakeProfit*100 {
		return fmt.Sprintf("TAKE_PROFIT_%.0f%%", p.cfg.TakeProfit*100), true
	}
	adx := f.Value(indicators.ColADX, i)
	plus := f.Value(indicators.ColPlusDI, i)
	minus := f.Value(indicators.ColMinusDI, i)
	rsi := f.Value(indicators.ColRSI, i)
	if adx >= p.cfg.ADXThreshold && minus > plus && rsi > p.cfg.RSIOversold {
		return "ADX_SELL_SIGNAL", true
	}
	return "", false
}

func (p *ADXDCA) ShouldEnter(f *indicators.Frame, i int) bool {
	adx := f.Value(indicators.ColADX, i)
	plus := f.Value(indicators.ColPlusDI, i)
	minus := f.Value(indicators.ColMinusDI, i)
	rsi := f.Value(indicators.ColRSI, i)
	return adx >= p.cfg.ADXThreshold && plus > minus && rsi < p.cfg.RSIOverbought
}

func (p *ADXDCA) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	reason, dir, ok := displacementDCA(f.At(i).Close, led, p.lastDCADir, p.cfg.DCAThreshold, p.cfg.MaxDCA)
	if !ok {
		return "", false
	}
	p.lastDCADir = dir
	return reason, true
}

// Observe clears the displacement direction on position transitions, so a
// fresh entry (only once its order actually fills) and a close both start the
// add sequence over.
func (p *ADXDCA) Observe(f *indicators.Frame, i int, led *engine.Ledger) {
	if p.prevSide != led.Side() {
		p.lastDCADir = ""
	}
	p.prevSide = led.Side()
}

// displacementDCA is the shared ADX/PSAR add rule: a leg fires when the
// execution price has moved at least threshold (fraction) away from the
// first entry, up or down, and the previous add was not in the same
// direction.
func displacementDCA(price float64, led *engine.Ledger, lastDir string, threshold float64, maxDCA int) (reason, dir string, ok bool) {
	first := led.FirstEntryPrice()
	if first == 0 || led.DCACount() >= maxDCA {
		return "", "", false
	}
	changePct := (price - first) / first * 100
	switch {
	case changePct >= threshold*100 && lastDir != "up":
		dir = "up"
	case changePct <= -threshold*100 && lastDir != "down":
		dir = "down"
	default:
		return "", "", false
	}
	reason = fmt.Sprintf("DCA_%s_%.0f%%", strings.ToUpper(dir), threshold*100)
	return reason, dir, true
}
