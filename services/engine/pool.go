package engine

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Unit is one independent (symbol, timeframe, policy, parameters) backtest.
// Each unit annotates its own frame, so units never share mutable state.
type Unit struct {
	Series *candles.Series
	Policy Policy
	Ledger LedgerConfig
	Params indicators.Params
}

// UnitError reports a failed unit without aborting the batch.
type UnitError struct {
	Symbol    string
	Timeframe string
	Strategy  string
	Err       error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("backtest %s/%s/%s: %v", e.Symbol, e.Timeframe, e.Strategy, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// UnitResult pairs a unit's run output with its summary; exactly one of
// Run/Err is set.
type UnitResult struct {
	Run     *RunResult
	Summary *Results
	Err     *UnitError
}

// RunUnit executes a single unit, converting panics into a UnitError so a
// sweep or server batch keeps going.
func RunUnit(u Unit, logger *zap.Logger) (res UnitResult) {
	defer func() {
		if r := recover(); r != nil {
			res = UnitResult{Err: &UnitError{
				Symbol:    u.Series.Symbol,
				Timeframe: u.Series.Timeframe,
				Strategy:  u.Policy.Name(),
				Err:       fmt.Errorf("panic: %v", r),
			}}
		}
	}()

	frame, err := indicators.Annotate(u.Series, u.Params, u.Policy.Columns()...)
	if err != nil {
		return UnitResult{Err: &UnitError{
			Symbol:    u.Series.Symbol,
			Timeframe: u.Series.Timeframe,
			Strategy:  u.Policy.Name(),
			Err:       err,
		}}
	}

	run := NewDriver(u.Policy, u.Ledger, logger).Run(frame)
	return UnitResult{Run: run, Summary: Summarize(run)}
}

// Pool fans units out over a bounded worker set. Units are embarrassingly
// parallel: independent input series, independent output structures.
type Pool struct {
	Workers int
	Logger  *zap.Logger
}

// RunAll executes all units and returns results in completion order.
func (p Pool) RunAll(units []Unit) []UnitResult {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(units) {
		workers = len(units)
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	unitCh := make(chan Unit, len(units))
	resCh := make(chan UnitResult, len(units))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range unitCh {
				resCh <- RunUnit(u, logger)
			}
		}()
	}
	for _, u := range units {
		unitCh <- u
	}
	close(unitCh)
	wg.Wait()
	close(resCh)

	out := make([]UnitResult, 0, len(units))
	for r := range resCh {
		if r.Err != nil {
			logger.Warn("backtest unit failed",
				zap.String("symbol", r.Err.Symbol),
				zap.String("timeframe", r.Err.Timeframe),
				zap.Error(r.Err.Err))
		}
		out = append(out, r)
	}
	return out
}
