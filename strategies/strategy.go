// Package strategies implements the signal policy variants executed by the
// engine driver. Every variant embeds engine.Base and overrides only the
// predicates it cares about; construction goes through New so callers select
// variants by name.
package strategies

import (
	"fmt"
	"sort"

	"github.com/phungvanthien/seerbot-backtest/services/config"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Variant names accepted by New.
const (
	NameRSIDCA   = "rsi_dca"
	NameClassic  = "classic"
	NameImproved = "improved"
	NameAdvanced = "advanced"
	NameADXDCA   = "adx_dca"
	NamePSARDCA  = "psar_dca"
	NameShort    = "short"
)

// Options carries the optional inputs a variant may use beyond its strategy
// parameters.
type Options struct {
	// HigherFrame is the higher-timeframe annotated frame the advanced
	// variant consults for multi-timeframe confirmation. Nil skips the check.
	HigherFrame *indicators.Frame
}

// New builds the named policy variant from strategy parameters.
func New(name string, s config.Strategy, opts Options) (engine.Policy, error) {
	switch name {
	case NameRSIDCA:
		return NewRSIDCA(s), nil
	case NameClassic:
		return NewClassic(s), nil
	case NameImproved:
		return NewImproved(s), nil
	case NameAdvanced:
		return NewAdvanced(s, opts.HigherFrame), nil
	case NameADXDCA:
		return NewADXDCA(s), nil
	case NamePSARDCA:
		return NewPSARDCA(s), nil
	case NameShort:
		return NewShort(s), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
}

// Names lists the registered variant names, sorted.
func Names() []string {
	names := []string{
		NameRSIDCA, NameClassic, NameImproved, NameAdvanced,
		NameADXDCA, NamePSARDCA, NameShort,
	}
	sort.Strings(names)
	return names
}

// IndicatorParams maps strategy parameters onto indicator computation
// settings.
func IndicatorParams(s config.Strategy) indicators.Params {
	p := indicators.DefaultParams()
	p.RSIPeriod = s.RSIPeriod
	p.ADXPeriod = s.ADXPeriod
	p.PSAR = indicators.PSARConfig{
		AFStart:     s.PSARAFStart,
		AFIncrement: s.PSARAFIncrement,
		AFMax:       s.PSARAFMax,
	}
	return p
}

// LedgerConfig derives the capital/sizing settings for a variant. The classic
// variant sizes entries as a fraction of remaining cash; everything else uses
// fixed-amount legs.
func LedgerConfig(name string, s config.Strategy) engine.LedgerConfig {
	cfg := engine.LedgerConfig{
		InitialCapital: s.InitialCapital,
		Sizing:         engine.SizingFixed,
		FixedAmount:    s.FixedAmount,
		PositionSize:   s.PositionSize,
	}
	if name == NameClassic {
		cfg.Sizing = engine.SizingPercent
	}
	return cfg
}
