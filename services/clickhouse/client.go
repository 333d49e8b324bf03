// Package clickhouse is the candle store. One ReplacingMergeTree table keyed
// by (symbol, timeframe, open_time_ms) holds every ingested series; the
// version column makes re-ingestion idempotent.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/config"
)

// Client wraps one native-protocol connection pool.
type Client struct {
	conn clickhouse.Conn
	cfg  config.ClickHouse
	log  *zap.Logger
}

// Open connects and pings. logger may be nil.
func Open(ctx context.Context, cfg config.ClickHouse, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{conn: conn, cfg: cfg, log: logger}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// EnsureSchema creates the database and candle table if missing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	dbDDL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", c.cfg.Database)
	if err := c.conn.Exec(ctx, dbDDL); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	tableDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			symbol String,
			timeframe LowCardinality(String),
			open_time_ms UInt64,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			ingested_at DateTime64(3),
			version UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (symbol, timeframe, open_time_ms)
		SETTINGS index_granularity = 8192
	`, c.cfg.Database, c.cfg.Table)
	return c.conn.Exec(ctx, tableDDL)
}

// InsertSeries writes all candles of a series in one deduplicated batch.
func (c *Client) InsertSeries(ctx context.Context, s *candles.Series) error {
	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO %s.%s SETTINGS insert_deduplicate=1", c.cfg.Database, c.cfg.Table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	now := time.Now().UTC()
	version := uint64(now.UnixMilli())
	for _, b := range s.Candles {
		if err := batch.Append(
			s.Symbol, s.Timeframe,
			uint64(b.Timestamp.UnixMilli()),
			b.Open, b.High, b.Low, b.Close,
			b.Volume,
			now, version,
		); err != nil {
			return fmt.Errorf("batch append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("batch send: %w", err)
	}
	c.log.Info("inserted candles",
		zap.String("symbol", s.Symbol),
		zap.String("timeframe", s.Timeframe),
		zap.Int("rows", s.Len()))
	return nil
}

// Bar is one stored candle with exact prices, as read back from the store.
type Bar struct {
	Symbol    string
	Timeframe string
	Timestamp uint64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// QueryBars reads the deduplicated rows for one (symbol, timeframe) in a
// time range. A zero `to` means "to the end of the data".
func (c *Client) QueryBars(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]Bar, error) {
	q := fmt.Sprintf(`
		SELECT symbol, timeframe, open_time_ms, open, high, low, close, volume
		FROM %s.%s FINAL
		WHERE symbol = ? AND timeframe = ? AND open_time_ms >= ?`, c.cfg.Database, c.cfg.Table)
	args := []any{symbol, timeframe, uint64(from.UnixMilli())}
	if !to.IsZero() {
		q += " AND open_time_ms < ?"
		args = append(args, uint64(to.UnixMilli()))
	}
	q += " ORDER BY open_time_ms"

	rows, err := c.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []Bar
	for rows.Next() {
		var (
			b                      Bar
			open, high, low, closp float64
			vol                    float64
		)
		if err := rows.Scan(&b.Symbol, &b.Timeframe, &b.Timestamp, &open, &high, &low, &closp, &vol); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Open = decimal.NewFromFloat(open)
		b.High = decimal.NewFromFloat(high)
		b.Low = decimal.NewFromFloat(low)
		b.Close = decimal.NewFromFloat(closp)
		b.Volume = decimal.NewFromFloat(vol)
		out = append(out, b)
	}
	return out, rows.Err()
}

// LoadSeries reads a range back as a validated candle series.
func (c *Client) LoadSeries(ctx context.Context, symbol, timeframe string, from, to time.Time) (*candles.Series, error) {
	bars, err := c.QueryBars(ctx, symbol, timeframe, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]candles.Candle, 0, len(bars))
	for _, b := range bars {
		out = append(out, candles.Candle{
			Timestamp: time.UnixMilli(int64(b.Timestamp)).UTC(),
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume.InexactFloat64(),
		})
	}
	return candles.NewSeries(symbol, timeframe, out)
}
