// Ingests candle CSV files into the ClickHouse candle store. File names
// follow the <PAIR>_<TIMEFRAME>.csv convention; re-runs are idempotent
// thanks to the ReplacingMergeTree schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	ch "github.com/phungvanthien/seerbot-backtest/services/clickhouse"
	"github.com/phungvanthien/seerbot-backtest/services/config"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path (optional, defaults apply)")
	dataDir := flag.String("data-dir", "", "Directory of candle CSVs; overrides config")
	csvPath := flag.String("csv", "", "Single CSV to ingest (requires -pair and -timeframe)")
	pair := flag.String("pair", "", "Pair for -csv ingestion")
	timeframe := flag.String("timeframe", "", "Timeframe for -csv ingestion")
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
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	ctx := context.Background()
	client, err := ch.Open(ctx, cfg.ClickHouse, logger)
	if err != nil {
		logger.Fatal("clickhouse connect", zap.Error(err))
	}
	defer client.Close()

	if err := client.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	if *csvPath != "" {
		if *pair == "" || *timeframe == "" {
			logger.Fatal("-csv requires -pair and -timeframe")
		}
		ingest(ctx, client, logger, *csvPath, *pair, *timeframe)
		return
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		logger.Fatal("read data dir", zap.Error(err))
	}
	installed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".csv")
		sep := strings.LastIndex(base, "_")
		if sep <= 0 || sep == len(base)-1 {
			logger.Warn("skipping file without <pair>_<timeframe> name", zap.String("file", e.Name()))
			continue
		}
		ingest(ctx, client, logger, filepath.Join(cfg.DataDir, e.Name()), base[:sep], base[sep+1:])
		installed++
	}
	fmt.Printf("Installed %d series into %s.%s\n", installed, cfg.ClickHouse.Database, cfg.ClickHouse.Table)
}

func ingest(ctx context.Context, client *ch.Client, logger *zap.Logger, path, pair, timeframe string) {
	series, err := candles.LoadCSV(path, pair, timeframe)
	if err != nil {
		logger.Fatal("load csv", zap.String("path", path), zap.Error(err))
	}
	if err := client.InsertSeries(ctx, series); err != nil {
		logger.Fatal("insert series", zap.String("path", path), zap.Error(err))
	}
}
