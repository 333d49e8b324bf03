package strategies

import (
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Hard risk rails applied by the fixed-amount variant regardless of the
// configured stop/take levels.
const (
	trailingStopPct = 0.03
	hardStopPct     = 2.5
	hardTakePct     = 5.0
)

// RSIDCA is the fixed-amount RSI mean-reversion variant. It buys oversold
// dips filtered by EMA20 and volume, averages down on red candles below the
// average entry, and exits through a fixed priority chain: trailing stop,
// hard stop, hard take, configured stop, RSI overbought, configured take.
type RSIDCA struct {
	engine.Base
	cfg config.Strategy
}

func NewRSIDCA(s config.Strategy) *RSIDCA { return &RSIDCA{cfg: s} }

func (p *RSIDCA) Name() string { return NameRSIDCA }

func (p *RSIDCA) Columns() []string {
	return []string{indicators.ColRSI, indicators.ColEMA20, indicators.ColVolumeMA}
}

func (p *RSIDCA) Warm(f *indicators.Frame, i int) bool {
	return f.Defined(i, indicators.ColRSI, indicators.ColEMA20)
}

func (p *RSIDCA) ShouldExit(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	close := f.At(i).Close

	trailing := led.HighestPrice() * (1 - trailingStopPct)
	if close < trailing && close < led.AvgEntryPrice() {
		return "TRAILING_STOP", true
	}

	profitPct := led.CurrentProfitPct(close)
	if profitPct <= -hardStopPct {
		return "STOP_LOSS_2.5%", true
	}
	if profitPct >= hardTakePct {
		return "TAKE_PROFIT_5%", true
	}

	if close <= led.AvgEntryPrice()*(1-p.cfg.StopLoss) {
		return "STOP_LOSS", true
	}
	if f.Value(indicators.ColRSI, i) >= p.cfg.RSISell {
		return "RSI_SELL", true
	}
	if profitPct >= p.cfg.TakeProfit*100 {
		return "TAKE_PROFIT", true
	}
	return "", false
}

func (p *RSIDCA) ShouldEnter(f *indicators.Frame, i int) bool {
	if f.Value(indicators.ColRSI, i) > p.cfg.RSIBuy {
		return false
	}
	c := f.At(i)
	if p.cfg.UseTrendFilter && c.Close < f.Value(indicators.ColEMA20, i)*0.95 {
		return false
	}
	if p.cfg.UseVolumeFilter && c.Volume < f.Value(indicators.ColVolumeMA, i)*0.8 {
		return false
	}
	return true
}

func (p *RSIDCA) ShouldDCA(f *indicators.Frame, i int, led *engine.Ledger) (string, bool) {
	if !p.ShouldEnter(f, i) {
		return "", false
	}
	c := f.At(i)
	if !c.IsRed() || led.DCACount() >= p.cfg.MaxDCA {
		return "", false
	}
	if c.Close >= led.AvgEntryPrice() {
		return "", false
	}
	return "", true
}
