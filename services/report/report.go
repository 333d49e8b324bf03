// Package report renders run output: trade and equity CSV files, JSON
// summaries, and a plain-text console summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phungvanthien/seerbot-backtest/services/engine"
)

// money renders a fixed two-decimal value; NaN (e.g. RSI on variants that
// never compute it) renders empty.
func money(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string { return money(v) }

// WriteTradesCSV exports the run's trade log.
func WriteTradesCSV(filename string, run *engine.RunResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"timestamp", "type", "price", "amount", "capital", "proceeds",
		"invested", "profit", "profit_pct", "rsi", "reason", "position",
		"avg_entry_price", "cash",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range run.Trades {
		record := []string{
			t.Timestamp.UTC().Format(time.RFC3339),
			t.Type,
			money(t.Price),
			fmt.Sprintf("%.8f", t.Amount),
			money(t.Capital),
			money(t.Proceeds),
			money(t.Invested),
			money(t.Profit),
			percent(t.ProfitPct),
			percent(t.RSI),
			t.Reason,
			fmt.Sprintf("%.8f", t.Position),
			money(t.AvgEntry),
			money(t.Cash),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCSV exports the run's equity curve.
func WriteEquityCSV(filename string, run *engine.RunResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "equity"}); err != nil {
		return err
	}
	for _, p := range run.Equity {
		record := []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			money(p.Value),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummaryJSON exports one or more run summaries as a JSON array.
func WriteSummaryJSON(filename string, results []*engine.Results) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// PrintSummary writes a one-run console report.
func PrintSummary(w io.Writer, res *engine.Results) {
	if res == nil {
		fmt.Fprintln(w, "No trades executed.")
		return
	}
	fmt.Fprintf(w, "%s %s | %s\n", res.Symbol, res.Timeframe, res.Strategy)
	fmt.Fprintf(w, "  Capital: $%s -> $%s (%s%%)\n",
		money(res.InitialCapital), money(res.FinalCapital), percent(res.TotalProfitPct))
	fmt.Fprintf(w, "  Trades: %d buys, %d sells | WinRate: %s%% | AvgPnL: $%s (%s%%)\n",
		res.TotalBuys, res.TotalTrades, percent(res.WinRate),
		money(res.AvgProfit), percent(res.AvgProfitPct))
	fmt.Fprintf(w, "  Equity: max $%s, min $%s\n", money(res.MaxEquity), money(res.MinEquity))

	if len(res.SellReasons) > 0 {
		reasons := make([]string, 0, len(res.SellReasons))
		for r := range res.SellReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		fmt.Fprint(w, "  Exits:")
		for _, r := range reasons {
			fmt.Fprintf(w, " %s=%d", r, res.SellReasons[r])
		}
		fmt.Fprintln(w)
	}
}

// PrintComparison writes a compact table over many summaries, sorted by
// total return, best first.
func PrintComparison(w io.Writer, results []*engine.Results) {
	rows := make([]*engine.Results, 0, len(results))
	for _, r := range results {
		if r != nil {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalProfitPct > rows[j].TotalProfitPct
	})

	fmt.Fprintf(w, "%-12s %-5s %-10s %10s %8s %7s %7s\n",
		"SYMBOL", "TF", "STRATEGY", "RETURN%", "WINRATE", "SELLS", "BUYS")
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s %-5s %-10s %10s %7s%% %7d %7d\n",
			r.Symbol, r.Timeframe, r.Strategy,
			percent(r.TotalProfitPct), percent(r.WinRate),
			r.TotalTrades, r.TotalBuys)
	}
}
