package engine

// Results summarizes one run's trade log. A nil Results means "insufficient
// data" (empty trade log), not an error.
type Results struct {
	Symbol         string         `json:"symbol"`
	Timeframe      string         `json:"timeframe"`
	Strategy       string         `json:"strategy"`
	InitialCapital float64        `json:"initial_capital"`
	FinalCapital   float64        `json:"final_capital"`
	TotalProfit    float64        `json:"total_profit"`
	TotalProfitPct float64        `json:"total_profit_pct"`
	TotalTrades    int            `json:"total_trades"`
	TotalBuys      int            `json:"total_buys"`
	WinningTrades  int            `json:"winning_trades"`
	LosingTrades   int            `json:"losing_trades"`
	WinRate        float64        `json:"win_rate"`
	AvgProfit      float64        `json:"avg_profit"`
	AvgProfitPct   float64        `json:"avg_profit_pct"`
	MaxEquity      float64        `json:"max_equity"`
	MinEquity      float64        `json:"min_equity"`
	SellReasons    map[string]int `json:"sell_reasons"`
}

// Summarize reduces a run's trade log into summary metrics. Returns nil when
// the run produced no trades.
func Summarize(run *RunResult) *Results {
	if run == nil || len(run.Trades) == 0 {
		return nil
	}

	res := &Results{
		Symbol:         run.Symbol,
		Timeframe:      run.Timeframe,
		Strategy:       run.Strategy,
		InitialCapital: run.InitialCapital,
		FinalCapital:   run.FinalCash,
		MaxEquity:      run.InitialCapital,
		MinEquity:      run.InitialCapital,
		SellReasons:    make(map[string]int),
	}

	var profitSum, pctSum float64
	for _, t := range run.Trades {
		if t.IsEntry() {
			res.TotalBuys++
			continue
		}
		if !t.IsExit() {
			continue
		}
		res.TotalTrades++
		res.TotalProfit += t.Profit
		profitSum += t.Profit
		pctSum += t.ProfitPct
		if t.Profit > 0 {
			res.WinningTrades++
		} else if t.Profit < 0 {
			res.LosingTrades++
		}
		reason := t.Reason
		if reason == "" {
			reason = "UNKNOWN"
		}
		res.SellReasons[reason]++
	}

	if run.InitialCapital > 0 {
		res.TotalProfitPct = (run.FinalCash - run.InitialCapital) / run.InitialCapital * 100
	}
	if res.TotalTrades > 0 {
		res.WinRate = float64(res.WinningTrades) / float64(res.TotalTrades) * 100
		res.AvgProfit = profitSum / float64(res.TotalTrades)
		res.AvgProfitPct = pctSum / float64(res.TotalTrades)
	}

	if len(run.Equity) > 0 {
		res.MaxEquity = run.Equity[0].Value
		res.MinEquity = run.Equity[0].Value
		for _, p := range run.Equity[1:] {
			if p.Value > res.MaxEquity {
				res.MaxEquity = p.Value
			}
			if p.Value < res.MinEquity {
				res.MinEquity = p.Value
			}
		}
	}
	return res
}
