// Package config carries every tunable of a backtest run as an explicit
// value; nothing in this repository reads process-global strategy state.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Strategy holds the signal/sizing parameters shared by the policy variants.
type Strategy struct {
	InitialCapital float64 `yaml:"initial_capital"`
	FixedAmount    float64 `yaml:"fixed_amount"`
	PositionSize   float64 `yaml:"position_size"`
	TakeProfit     float64 `yaml:"take_profit"`
	StopLoss       float64 `yaml:"stop_loss"`
	RSIBuy         float64 `yaml:"rsi_buy"`
	RSISell        float64 `yaml:"rsi_sell"`
	RSIPeriod      int     `yaml:"rsi_period"`
	MaxDCA         int     `yaml:"max_dca"`
	UseTrendFilter bool    `yaml:"use_trend_filter"`
	UseVolumeFilter bool   `yaml:"use_volume_filter"`

	ADXPeriod     int     `yaml:"adx_period"`
	ADXThreshold  float64 `yaml:"adx_threshold"`
	DCAThreshold  float64 `yaml:"dca_threshold"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	PSARAFStart     float64 `yaml:"psar_af_start"`
	PSARAFIncrement float64 `yaml:"psar_af_increment"`
	PSARAFMax       float64 `yaml:"psar_af_max"`

	RSIShortEntry float64 `yaml:"rsi_short_entry"`
	RSICover      float64 `yaml:"rsi_cover"`
}

// Config is one backtest batch description.
type Config struct {
	Pairs      []string `yaml:"pairs"`
	Timeframes []string `yaml:"timeframes"`
	DataDir    string   `yaml:"data_dir"`
	Workers    int      `yaml:"workers"`
	Strategy   Strategy `yaml:"strategy"`

	ClickHouse ClickHouse `yaml:"clickhouse"`
}

// ClickHouse holds the candle-store connection settings; env vars override
// the YAML values so credentials stay out of checked-in files.
type ClickHouse struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Default returns the research defaults: $10k capital, $500 fixed legs,
// 5%/2.5% TP/SL, RSI(14) 25/75, two DCA adds, both entry filters on.
func Default() Config {
	return Config{
		Pairs:      []string{"iBTCUSDM", "iETHUSDM", "ADAUSDM", "WMTXUSDM", "IAGUSDM", "SNEKUSDM"},
		Timeframes: []string{"4h"},
		DataDir:    "data",
		Strategy: Strategy{
			InitialCapital:  10000,
			FixedAmount:     500,
			PositionSize:    0.05,
			TakeProfit:      0.05,
			StopLoss:        0.025,
			RSIBuy:          25,
			RSISell:         75,
			RSIPeriod:       14,
			MaxDCA:          2,
			UseTrendFilter:  true,
			UseVolumeFilter: true,
			ADXPeriod:       14,
			ADXThreshold:    25,
			DCAThreshold:    0.05,
			RSIOversold:     30,
			RSIOverbought:   70,
			PSARAFStart:     0.02,
			PSARAFIncrement: 0.02,
			PSARAFMax:       0.2,
			RSIShortEntry:   75,
			RSICover:        25,
		},
		ClickHouse: ClickHouse{
			Addr:     env("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: env("CH_DATABASE", "backtest"),
			Table:    env("CH_TABLE", "candles_ohlcv"),
			User:     env("CH_USER", "backtest"),
			Password: env("CH_PASSWORD", ""),
		},
	}
}

// Load reads a YAML config over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AdjustForTimeframe applies the per-timeframe overrides the improved
// strategy used: shorter frames get stricter RSI entries and tighter TP/SL.
func (s *Strategy) AdjustForTimeframe(timeframe string) {
	switch strings.ToLower(timeframe) {
	case "1h", "2h":
		s.RSIBuy = maxF(18, s.RSIBuy-5)
		s.TakeProfit = 0.03
		s.StopLoss = 0.015
	case "4h", "6h":
		s.RSIBuy = maxF(20, s.RSIBuy-2)
		s.TakeProfit = 0.05
		s.StopLoss = 0.025
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
