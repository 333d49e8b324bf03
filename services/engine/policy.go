package engine

import (
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Policy is the pluggable signal predicate set evaluated by the Driver on
// every candle. Implementations may carry per-run state; Reset is called once
// at the start of each run.
type Policy interface {
	// Name identifies the strategy variant in results and logs.
	Name() string
	// Columns lists the indicator columns the policy reads.
	Columns() []string
	// Reset clears any per-run state.
	Reset()
	// Warm reports whether the indicators the policy needs are defined at bar
	// i. While false, both entry and exit evaluation are suppressed; equity is
	// still recorded.
	Warm(f *indicators.Frame, i int) bool
	// TradePrice is the execution price for entries and exits on bar i.
	TradePrice(f *indicators.Frame, i int) float64
	// ShouldExit returns the exit reason when the open position must close on
	// bar i. Rules are evaluated in the variant's fixed priority order; only
	// the first satisfied rule fires.
	ShouldExit(f *indicators.Frame, i int, led *Ledger) (string, bool)
	// ShouldEnter reports whether a fresh position should open on bar i.
	ShouldEnter(f *indicators.Frame, i int) bool
	// EntryReason labels fresh entries in the trade log. Most variants leave
	// it empty; the ADX and PSAR variants tag their entry signal.
	EntryReason() string
	// ShouldDCA reports whether the open position should add a leg on bar i,
	// with the entry reason to record.
	ShouldDCA(f *indicators.Frame, i int, led *Ledger) (string, bool)
	// Observe runs after every processed candle, consumed or not, letting
	// stateful variants track position transitions.
	Observe(f *indicators.Frame, i int, led *Ledger)
	// Direction is SideLong for buying policies, SideShort for the mirror.
	Direction() Side
	// ExitConsumesCandle reports whether an exit ends the candle's
	// processing. All variants except the original percentage-sized engine
	// consume the candle.
	ExitConsumesCandle() bool
	// EndReason labels the forced end-of-data liquidation.
	EndReason() string
}

// Base supplies the common Policy defaults: long direction, execution at the
// candle close, exits consume the candle, no per-candle observation.
type Base struct{}

func (Base) Reset()                                                     {}
func (Base) EntryReason() string                                        { return "" }
func (Base) TradePrice(f *indicators.Frame, i int) float64              { return f.At(i).Close }
func (Base) Observe(f *indicators.Frame, i int, led *Ledger)            {}
func (Base) Direction() Side                                            { return SideLong }
func (Base) ExitConsumesCandle() bool                                   { return true }
func (Base) EndReason() string                                          { return ReasonEndOfData }
