package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Driver is the per-candle position state machine. One Driver owns one
// Ledger; Run resets everything, so a Driver is reusable but not safe for
// concurrent runs.
type Driver struct {
	policy Policy
	ledger *Ledger
	log    *zap.Logger
}

// NewDriver wires a policy to a fresh ledger. logger may be nil.
func NewDriver(policy Policy, cfg LedgerConfig, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{policy: policy, ledger: NewLedger(cfg), log: logger}
}

// Ledger exposes the driver's ledger, mainly for tests.
func (d *Driver) Ledger() *Ledger { return d.ledger }

// Run folds the annotated frame into a trade log and equity curve. Exit rules
// run before entry rules on every candle; a fired exit consumes the candle
// (except for policies that opt out). Any position still open after the last
// candle is force-liquidated so the run always ends flat.
func (d *Driver) Run(f *indicators.Frame) *RunResult {
	d.ledger.Reset()
	d.policy.Reset()

	short := d.policy.Direction() == SideShort
	equity := make([]EquityPoint, 0, f.Len())

	record := func(i int) {
		c := f.At(i)
		equity = append(equity, EquityPoint{Timestamp: c.Timestamp, Value: d.ledger.CurrentValue(c.Close)})
	}

	for i := 0; i < f.Len(); i++ {
		c := f.At(i)

		// Warm gates signal generation only. An open position is still
		// managed on un-warm bars: price-based exits fire regardless of
		// indicator gaps, and NaN indicator comparisons are false, so
		// indicator-based exit rules simply stay quiet.
		warm := d.policy.Warm(f, i)
		if !warm && d.ledger.Side() == SideFlat {
			record(i)
			continue
		}
		rsi := f.Value(indicators.ColRSI, i)

		consumed := false
		if d.ledger.Side() != SideFlat {
			d.ledger.MarkHigh(c.Close)
			if reason, ok := d.policy.ShouldExit(f, i, d.ledger); ok {
				price := d.policy.TradePrice(f, i)
				if short {
					d.ledger.Cover(price, c.Timestamp, rsi, reason)
				} else {
					d.ledger.Sell(price, c.Timestamp, rsi, reason)
				}
				d.log.Debug("exit",
					zap.Time("ts", c.Timestamp),
					zap.String("reason", reason),
					zap.Float64("price", price))
				consumed = d.policy.ExitConsumesCandle()
			}
		}

		if !consumed && warm {
			if d.ledger.Side() == SideFlat {
				if d.policy.ShouldEnter(f, i) {
					price := d.policy.TradePrice(f, i)
					if short {
						d.ledger.ShortSell(price, c.Timestamp, rsi, false, d.policy.EntryReason())
					} else {
						d.ledger.Buy(price, c.Timestamp, rsi, false, d.policy.EntryReason())
					}
				}
			} else if reason, ok := d.policy.ShouldDCA(f, i, d.ledger); ok {
				price := d.policy.TradePrice(f, i)
				if short {
					d.ledger.ShortSell(price, c.Timestamp, rsi, true, reason)
				} else {
					d.ledger.Buy(price, c.Timestamp, rsi, true, reason)
				}
			}
		}

		d.policy.Observe(f, i, d.ledger)
		record(i)
	}

	// Terminal rule: liquidate at the last candle's execution price.
	if d.ledger.Side() != SideFlat && f.Len() > 0 {
		last := f.Len() - 1
		c := f.At(last)
		price := d.policy.TradePrice(f, last)
		rsi := f.Value(indicators.ColRSI, last)
		if math.IsNaN(price) || price <= 0 {
			price = c.Close
		}
		if short {
			d.ledger.Cover(price, c.Timestamp, rsi, d.policy.EndReason())
		} else {
			d.ledger.Sell(price, c.Timestamp, rsi, d.policy.EndReason())
		}
	}

	return &RunResult{
		Symbol:         f.Series.Symbol,
		Timeframe:      f.Series.Timeframe,
		Strategy:       d.policy.Name(),
		InitialCapital: d.ledger.cfg.InitialCapital,
		FinalCash:      d.ledger.Cash(),
		Trades:         d.ledger.Trades(),
		Equity:         equity,
	}
}
