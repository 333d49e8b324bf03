// Batch sweep: every configured pair and timeframe against one or more
// strategy variants, fanned out over a worker pool.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/report"
	"github.com/phungvanthien/seerbot-backtest/strategies"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path (optional, defaults apply)")
	strategyList := flag.String("strategies", strings.Join(strategies.Names(), ","), "Comma-separated strategy variants")
	outDir := flag.String("out", "./results", "Output directory")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
	}

	names := strings.Split(*strategyList, ",")
	sweepID := uuid.New().String()
	logger.Info("starting sweep",
		zap.String("sweep_id", sweepID),
		zap.Strings("pairs", cfg.Pairs),
		zap.Strings("timeframes", cfg.Timeframes),
		zap.Strings("strategies", names))

	var units []engine.Unit
	for _, pair := range cfg.Pairs {
		for _, tf := range cfg.Timeframes {
			path := filepath.Join(cfg.DataDir, fmt.Sprintf("%s_%s.csv", pair, tf))
			series, err := candles.LoadCSV(path, pair, tf)
			if err != nil {
				logger.Warn("skipping pair", zap.String("path", path), zap.Error(err))
				continue
			}
			for _, raw := range names {
				name := strings.TrimSpace(raw)
				params := cfg.Strategy
				if name == strategies.NameImproved || name == strategies.NameAdvanced {
					params.AdjustForTimeframe(tf)
				}
				policy, err := strategies.New(name, params, strategies.Options{})
				if err != nil {
					logger.Fatal("bad strategy", zap.Error(err))
				}
				units = append(units, engine.Unit{
					Series: series,
					Policy: policy,
					Ledger: strategies.LedgerConfig(name, params),
					Params: strategies.IndicatorParams(params),
				})
			}
		}
	}

	pool := engine.Pool{Workers: cfg.Workers, Logger: logger}
	results := pool.RunAll(units)

	var summaries []*engine.Results
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		summaries = append(summaries, r.Summary)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Fatal("create output dir", zap.Error(err))
	}
	summaryPath := filepath.Join(*outDir, fmt.Sprintf("sweep_%s.json", sweepID))
	if err := report.WriteSummaryJSON(summaryPath, summaries); err != nil {
		logger.Fatal("write summary", zap.Error(err))
	}

	report.PrintComparison(os.Stdout, summaries)
	fmt.Printf("Summary written to %s\n", summaryPath)
}
