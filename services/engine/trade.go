// Package engine implements the position/DCA backtest core: the capital
// ledger, the per-candle state machine and the results aggregation.
package engine

import "time"

// Trade types recorded in the ledger log.
const (
	TradeBuy      = "BUY"
	TradeDCA      = "DCA"
	TradeSell     = "SELL"
	TradeShort    = "SHORT"
	TradeShortDCA = "SHORT_DCA"
	TradeCover    = "COVER"
)

// Exit reasons emitted by the driver itself.
const (
	ReasonEndOfData      = "END_OF_DATA"
	ReasonShortEndOfData = "SHORT_END_OF_DATA"
)

// Trade is one append-only ledger log entry. Entry rows carry Capital; exit
// rows carry Proceeds, Profit and Reason. Never mutated after append.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Capital   float64   `json:"capital,omitempty"`
	Proceeds  float64   `json:"proceeds,omitempty"`
	Invested  float64   `json:"invested,omitempty"`
	Profit    float64   `json:"profit,omitempty"`
	ProfitPct float64   `json:"profit_pct,omitempty"`
	RSI       float64   `json:"rsi,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Position  float64   `json:"position"`
	AvgEntry  float64   `json:"avg_entry_price"`
	Cash      float64   `json:"cash"`
}

// IsEntry reports whether the record opened or extended a position.
func (t Trade) IsEntry() bool {
	switch t.Type {
	case TradeBuy, TradeDCA, TradeShort, TradeShortDCA:
		return true
	}
	return false
}

// IsExit reports whether the record closed a position.
func (t Trade) IsExit() bool { return t.Type == TradeSell || t.Type == TradeCover }

// EquityPoint is one mark-to-market sample, recorded for every processed
// candle including warm-up candles.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// RunResult is the output of one backtest run.
type RunResult struct {
	Symbol         string        `json:"symbol"`
	Timeframe      string        `json:"timeframe"`
	Strategy       string        `json:"strategy"`
	InitialCapital float64       `json:"initial_capital"`
	FinalCash      float64       `json:"final_cash"`
	Trades         []Trade       `json:"trades"`
	Equity         []EquityPoint `json:"equity"`
}
