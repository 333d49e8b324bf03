package engine

import "time"

// Side is the ledger's position direction.
type Side int

const (
	SideFlat Side = iota
	SideLong
	SideShort
)

// SizingMode selects how entry legs are sized.
type SizingMode int

const (
	// SizingFixed spends min(FixedAmount, cash) per leg, with a $10 floor.
	SizingFixed SizingMode = iota
	// SizingPercent spends PositionSize of remaining cash per leg, with a 1¢ floor.
	SizingPercent
)

// EntryLeg is one executed entry order contributing to the open position.
type EntryLeg struct {
	Price   float64
	Amount  float64
	Capital float64
}

// LedgerConfig fixes the capital accounting parameters for one run.
type LedgerConfig struct {
	InitialCapital float64
	Sizing         SizingMode
	FixedAmount    float64
	PositionSize   float64
}

// Ledger owns cash/position bookkeeping for one backtest run. All mutators
// append to the trade log; failed mutations leave no trace.
type Ledger struct {
	cfg LedgerConfig

	cash            float64
	side            Side
	legs            []EntryLeg
	dcaCount        int
	highestPrice    float64
	firstEntryPrice float64
	entryTime       time.Time

	trades []Trade
}

// NewLedger creates a ledger and resets it to the initial capital.
func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{cfg: cfg}
	l.Reset()
	return l
}

// Reset restores the ledger to a fresh run: full cash, flat, empty trade log.
func (l *Ledger) Reset() {
	l.cash = l.cfg.InitialCapital
	l.side = SideFlat
	l.legs = nil
	l.dcaCount = 0
	l.highestPrice = 0
	l.firstEntryPrice = 0
	l.entryTime = time.Time{}
	l.trades = nil
}

// Side returns the current position direction.
func (l *Ledger) Side() Side { return l.side }

// Cash returns the uninvested balance.
func (l *Ledger) Cash() float64 { return l.cash }

// DCACount returns the number of DCA legs in the open position.
func (l *Ledger) DCACount() int { return l.dcaCount }

// HighestPrice returns the session high observed since entry.
func (l *Ledger) HighestPrice() float64 { return l.highestPrice }

// FirstEntryPrice returns the opening leg's price, 0 when flat.
func (l *Ledger) FirstEntryPrice() float64 { return l.firstEntryPrice }

// LastLegPrice returns the most recent leg's price, 0 when flat.
func (l *Ledger) LastLegPrice() float64 {
	if len(l.legs) == 0 {
		return 0
	}
	return l.legs[len(l.legs)-1].Price
}

// EntryTime returns the opening leg's timestamp.
func (l *Ledger) EntryTime() time.Time { return l.entryTime }

// Trades returns the append-only trade log.
func (l *Ledger) Trades() []Trade { return l.trades }

// Amount returns the total position size across legs.
func (l *Ledger) Amount() float64 {
	var sum float64
	for _, leg := range l.legs {
		sum += leg.Amount
	}
	return sum
}

// TotalInvested returns the capital committed to the open position.
func (l *Ledger) TotalInvested() float64 {
	var sum float64
	for _, leg := range l.legs {
		sum += leg.Capital
	}
	return sum
}

// AvgEntryPrice returns the amount-weighted average entry price, 0 when flat.
func (l *Ledger) AvgEntryPrice() float64 {
	var amount, weighted float64
	for _, leg := range l.legs {
		amount += leg.Amount
		weighted += leg.Price * leg.Amount
	}
	if amount == 0 {
		return 0
	}
	return weighted / amount
}

// MarkHigh records a new session high while a position is open.
func (l *Ledger) MarkHigh(price float64) {
	if l.side != SideFlat && price > l.highestPrice {
		l.highestPrice = price
	}
}

// CurrentValue marks the whole account to the given price. For shorts the
// escrowed capital plus the unrealized spread is counted, mirroring the
// original short engine's equity formula.
func (l *Ledger) CurrentValue(price float64) float64 {
	switch l.side {
	case SideLong:
		return l.cash + l.Amount()*price
	case SideShort:
		invested := l.TotalInvested()
		return l.cash + invested + (invested - l.Amount()*price)
	default:
		return l.cash
	}
}

// CurrentProfitPct returns the open position's unrealized profit as a percent
// of invested capital; 0 when flat or nothing invested.
func (l *Ledger) CurrentProfitPct(price float64) float64 {
	invested := l.TotalInvested()
	if l.side == SideFlat || invested == 0 {
		return 0
	}
	value := l.Amount() * price
	if l.side == SideShort {
		return (invested - value) / invested * 100
	}
	return (value - invested) / invested * 100
}

// legCapital applies the sizing policy, returning 0 when the computed order
// would be below the minimum viable size.
func (l *Ledger) legCapital() float64 {
	switch l.cfg.Sizing {
	case SizingPercent:
		capital := l.cash * l.cfg.PositionSize
		if capital < 0.01 {
			return 0
		}
		return capital
	default:
		capital := l.cfg.FixedAmount
		if l.cash < capital {
			capital = l.cash
		}
		if capital < 10 {
			return 0
		}
		return capital
	}
}

// Buy opens or extends a long position at the given price. Returns false with
// no state change when the sized order is not viable.
func (l *Ledger) Buy(price float64, ts time.Time, rsi float64, isDCA bool, reason string) bool {
	if l.side == SideShort {
		return false
	}
	capital := l.legCapital()
	if capital == 0 {
		return false
	}
	amount := capital / price
	if amount <= 0 {
		return false
	}

	l.cash -= capital
	l.legs = append(l.legs, EntryLeg{Price: price, Amount: amount, Capital: capital})
	l.side = SideLong
	if isDCA {
		l.dcaCount++
	} else {
		l.dcaCount = 0
		l.entryTime = ts
		l.highestPrice = price
		l.firstEntryPrice = price
	}

	typ := TradeBuy
	if isDCA {
		typ = TradeDCA
	}
	l.trades = append(l.trades, Trade{
		Timestamp: ts, Type: typ, Price: price, Amount: amount, Capital: capital,
		RSI: rsi, Reason: reason, Position: l.Amount(), AvgEntry: l.AvgEntryPrice(), Cash: l.cash,
	})
	return true
}

// Sell closes the full long position at the given price. Returns false when
// there is nothing to sell.
func (l *Ledger) Sell(price float64, ts time.Time, rsi float64, reason string) bool {
	if l.side != SideLong || l.Amount() <= 0 {
		return false
	}
	amount := l.Amount()
	invested := l.TotalInvested()
	proceeds := amount * price
	profit := proceeds - invested
	profitPct := 0.0
	if invested > 0 {
		profitPct = profit / invested * 100
	}

	l.cash += proceeds
	l.trades = append(l.trades, Trade{
		Timestamp: ts, Type: TradeSell, Price: price, Amount: amount,
		Proceeds: proceeds, Invested: invested, Profit: profit, ProfitPct: profitPct,
		RSI: rsi, Reason: reason, Cash: l.cash,
	})
	l.clearPosition()
	return true
}

// ShortSell opens or extends a short position, escrowing the sized capital.
func (l *Ledger) ShortSell(price float64, ts time.Time, rsi float64, isDCA bool, reason string) bool {
	if l.side == SideLong {
		return false
	}
	capital := l.legCapital()
	if capital == 0 {
		return false
	}
	amount := capital / price
	if amount <= 0 {
		return false
	}

	l.cash -= capital
	l.legs = append(l.legs, EntryLeg{Price: price, Amount: amount, Capital: capital})
	l.side = SideShort
	if isDCA {
		l.dcaCount++
	} else {
		l.dcaCount = 0
		l.entryTime = ts
		l.highestPrice = price
		l.firstEntryPrice = price
	}

	typ := TradeShort
	if isDCA {
		typ = TradeShortDCA
	}
	l.trades = append(l.trades, Trade{
		Timestamp: ts, Type: typ, Price: price, Amount: amount, Capital: capital,
		RSI: rsi, Reason: reason, Position: l.Amount(), AvgEntry: l.AvgEntryPrice(), Cash: l.cash,
	})
	return true
}

// Cover buys back the full short position: the escrowed capital returns to
// cash plus the spread between entry and cover value.
func (l *Ledger) Cover(price float64, ts time.Time, rsi float64, reason string) bool {
	if l.side != SideShort || l.Amount() <= 0 {
		return false
	}
	amount := l.Amount()
	invested := l.TotalInvested()
	value := amount * price
	profit := invested - value
	profitPct := 0.0
	if invested > 0 {
		profitPct = profit / invested * 100
	}

	l.cash += invested + profit
	l.trades = append(l.trades, Trade{
		Timestamp: ts, Type: TradeCover, Price: price, Amount: amount,
		Proceeds: invested, Invested: invested, Profit: profit, ProfitPct: profitPct,
		RSI: rsi, Reason: reason, Cash: l.cash,
	})
	l.clearPosition()
	return true
}

func (l *Ledger) clearPosition() {
	l.side = SideFlat
	l.legs = nil
	l.dcaCount = 0
	l.highestPrice = 0
	l.firstEntryPrice = 0
	l.entryTime = time.Time{}
}
