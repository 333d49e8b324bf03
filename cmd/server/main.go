// HTTP backtest service: accepts run requests, loads candles from the
// ClickHouse store (falling back to local CSVs), executes them on a worker
// pool and returns the summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	ch "github.com/phungvanthien/seerbot-backtest/services/clickhouse"
	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/strategies"
)

// BacktestService owns the candle store connection and the worker pool.
type BacktestService struct {
	cfg    config.Config
	store  *ch.Client
	logger *zap.Logger
}

// BacktestRequest is one job: every pair crossed with the strategy list.
type BacktestRequest struct {
	Pairs      []string `json:"pairs" binding:"required"`
	Timeframe  string   `json:"timeframe" binding:"required"`
	Strategies []string `json:"strategies" binding:"required"`
	From       string   `json:"from"`
	To         string   `json:"to"`
}

// BacktestResponse reports each unit outcome under one job id.
type BacktestResponse struct {
	JobID     string            `json:"job_id"`
	Duration  string            `json:"duration"`
	Results   []*engine.Results `json:"results"`
	Failures  []string          `json:"failures,omitempty"`
	UnitCount int               `json:"unit_count"`
}

func NewBacktestService(cfg config.Config, logger *zap.Logger) *BacktestService {
	svc := &BacktestService{cfg: cfg, logger: logger}

	store, err := ch.Open(context.Background(), cfg.ClickHouse, logger)
	if err != nil {
		logger.Warn("clickhouse unavailable, serving from CSV data dir", zap.Error(err))
	} else {
		svc.store = store
	}
	return svc
}

func (s *BacktestService) loadSeries(ctx context.Context, pair, timeframe string, from, to time.Time) (*candles.Series, error) {
	if s.store != nil {
		series, err := s.store.LoadSeries(ctx, pair, timeframe, from, to)
		if err == nil && series.Len() > 0 {
			return series, nil
		}
		if err != nil {
			s.logger.Warn("clickhouse load failed, trying CSV",
				zap.String("pair", pair), zap.Error(err))
		}
	}
	path := filepath.Join(s.cfg.DataDir, fmt.Sprintf("%s_%s.csv", pair, timeframe))
	return candles.LoadCSV(path, pair, timeframe)
}

func (s *BacktestService) runBacktest(ctx context.Context, req BacktestRequest) (*BacktestResponse, error) {
	jobID := uuid.New().String()
	start := time.Now()

	from, to := time.Time{}, time.Time{}
	if req.From != "" {
		t, err := candles.ParseTimestamp(req.From)
		if err != nil {
			return nil, fmt.Errorf("parse from: %w", err)
		}
		from = t
	}
	if req.To != "" {
		t, err := candles.ParseTimestamp(req.To)
		if err != nil {
			return nil, fmt.Errorf("parse to: %w", err)
		}
		to = t
	}

	s.logger.Info("starting backtest job",
		zap.String("job_id", jobID),
		zap.Strings("pairs", req.Pairs),
		zap.String("timeframe", req.Timeframe),
		zap.Strings("strategies", req.Strategies))

	var units []engine.Unit
	var failures []string
	for _, pair := range req.Pairs {
		series, err := s.loadSeries(ctx, pair, req.Timeframe, from, to)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", pair, err))
			continue
		}
		for _, name := range req.Strategies {
			params := s.cfg.Strategy
			if name == strategies.NameImproved || name == strategies.NameAdvanced {
				params.AdjustForTimeframe(req.Timeframe)
			}
			policy, err := strategies.New(name, params, strategies.Options{})
			if err != nil {
				return nil, err
			}
			units = append(units, engine.Unit{
				Series: series,
				Policy: policy,
				Ledger: strategies.LedgerConfig(name, params),
				Params: strategies.IndicatorParams(params),
			})
		}
	}

	pool := engine.Pool{Workers: s.cfg.Workers, Logger: s.logger}
	results := pool.RunAll(units)

	resp := &BacktestResponse{
		JobID:     jobID,
		UnitCount: len(units),
		Failures:  failures,
	}
	for _, r := range results {
		if r.Err != nil {
			resp.Failures = append(resp.Failures, r.Err.Error())
			continue
		}
		resp.Results = append(resp.Results, r.Summary)
	}
	resp.Duration = time.Since(start).String()

	s.logger.Info("backtest job complete",
		zap.String("job_id", jobID),
		zap.Int("units", len(units)),
		zap.Int("failures", len(resp.Failures)),
		zap.Duration("execution_time", time.Since(start)))
	return resp, nil
}

func (s *BacktestService) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealth)
	api := r.Group("/api/v1")
	api.POST("/backtest", s.handleBacktest)
	api.GET("/strategies", s.handleStrategies)
}

func (s *BacktestService) handleBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := s.runBacktest(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("backtest request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *BacktestService) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategies.Names()})
}

func (s *BacktestService) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok", "clickhouse": s.store != nil}
	c.JSON(http.StatusOK, status)
}

func main() {
	cfgPath := flag.String("config", "", "YAML config path (optional, defaults apply)")
	addr := flag.String("addr", ":8080", "Listen address")
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

	svc := NewBacktestService(cfg, logger)
	if svc.store != nil {
		defer svc.store.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	svc.setupRoutes(r)

	logger.Info("backtest service listening", zap.String("addr", *addr))
	if err := r.Run(*addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
