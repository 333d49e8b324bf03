// Single backtest run: one pair, one timeframe, one strategy, CSV in,
// trades/equity CSV plus console summary out.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
	"github.com/phungvanthien/seerbot-backtest/services/report"
	"github.com/phungvanthien/seerbot-backtest/strategies"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path (optional, defaults apply)")
	csvPath := flag.String("csv", "", "Input candle CSV; overrides -data-dir lookup")
	pair := flag.String("pair", "iBTCUSDM", "Trading pair")
	timeframe := flag.String("timeframe", "4h", "Candle timeframe")
	strategy := flag.String("strategy", strategies.NameRSIDCA, fmt.Sprintf("Strategy variant %v", strategies.Names()))
	higherCSV := flag.String("higher-csv", "", "Higher-timeframe CSV for multi-timeframe confirmation (advanced only)")
	outDir := flag.String("out", "./results", "Output directory for trades/equity CSV")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
	}

	params := cfg.Strategy
	if *strategy == strategies.NameImproved || *strategy == strategies.NameAdvanced {
		params.AdjustForTimeframe(*timeframe)
	}

	path := *csvPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, fmt.Sprintf("%s_%s.csv", *pair, *timeframe))
	}
	series, err := candles.LoadCSV(path, *pair, *timeframe)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Loaded %d candles from %s\n", series.Len(), path)

	opts := strategies.Options{}
	if *higherCSV != "" {
		higher, err := candles.LoadCSV(*higherCSV, *pair, "higher")
		if err != nil {
			panic(err)
		}
		frame, err := indicators.Annotate(higher, strategies.IndicatorParams(params),
			indicators.ColEMA50, indicators.ColEMA200)
		if err != nil {
			panic(err)
		}
		opts.HigherFrame = frame
	}

	policy, err := strategies.New(*strategy, params, opts)
	if err != nil {
		panic(err)
	}

	res := engine.RunUnit(engine.Unit{
		Series: series,
		Policy: policy,
		Ledger: strategies.LedgerConfig(*strategy, params),
		Params: strategies.IndicatorParams(params),
	}, nil)
	if res.Err != nil {
		panic(res.Err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	tradesPath := filepath.Join(*outDir, fmt.Sprintf("%s_%s_%s_trades.csv", *pair, *timeframe, *strategy))
	equityPath := filepath.Join(*outDir, fmt.Sprintf("%s_%s_%s_equity.csv", *pair, *timeframe, *strategy))
	if err := report.WriteTradesCSV(tradesPath, res.Run); err != nil {
		panic(err)
	}
	if err := report.WriteEquityCSV(equityPath, res.Run); err != nil {
		panic(err)
	}

	report.PrintSummary(os.Stdout, res.Summary)
	fmt.Printf("Wrote %s and %s\n", tradesPath, equityPath)
}
