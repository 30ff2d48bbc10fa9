package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/idhash"
	"dip-strategy-lab/internal/marketdata"
	"dip-strategy-lab/internal/observability"
	"dip-strategy-lab/internal/storage"
)

// warmupDays is the calendar margin fetched before the range start so the
// trailing-high window is populated from the first tick (~20 sessions).
const warmupDays = 30

// Runner prefetches market data, executes a simulation and persists the
// output. All stores are optional; a nil store skips that persistence step.
type Runner struct {
	provider    marketdata.Provider
	barStore    storage.BarStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Provider    marketdata.Provider
	BarStore    storage.BarStore
	TradeStore  storage.TradeStore
	EquityStore storage.EquityCurveStore
}

// NewRunner creates a backtest runner. Provider is required.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: market data provider is required", ErrInvalidConfig)
	}
	return &Runner{
		provider:    opts.Provider,
		barStore:    opts.BarStore,
		tradeStore:  opts.TradeStore,
		equityStore: opts.EquityStore,
	}, nil
}

// Run executes one backtest.
// Steps:
//  1. Build the engine (validates config)
//  2. Prefetch bar series for all symbols, with warm-up margin
//  3. Run the tick loop
//  4. Assign the deterministic run ID
//  5. Persist bars, trades and equity curve to configured stores
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	started := time.Now()

	// 1. Build the engine first so a bad config never triggers fetches.
	engine, err := NewEngine(cfg, r.provider)
	if err != nil {
		return nil, err
	}

	// 2. Prefetch all series before the loop; the tick loop does no I/O.
	// A symbol with no data is skipped, never an error.
	start := time.UnixMilli(cfg.StartMs).UTC().AddDate(0, 0, -warmupDays)
	end := time.UnixMilli(cfg.EndMs).UTC()

	series := make(map[string][]domain.PriceBar, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		bars, err := r.provider.HistoricalData(ctx, sym, start, end, cfg.Interval)
		if err != nil || len(bars) == 0 {
			continue
		}
		series[sym] = bars
		observability.RecordBarsFetched(len(bars))
	}

	// 3. Run the tick loop.
	result, err := engine.Run(ctx, series)
	if err != nil {
		return nil, err
	}

	// 4. Deterministic run ID from strategy parameters.
	result.RunID = idhash.ComputeRunID(
		cfg.Symbols, cfg.Interval, cfg.StartMs, cfg.EndMs,
		cfg.DipThreshold, cfg.HoldDays,
		cfg.TakeProfit, cfg.StopLoss, cfg.PositionSize, cfg.InitialCapital,
	)

	// 5. Persist. Re-running the same parameters hits the same keys, so
	// duplicates are expected and ignored.
	if r.barStore != nil {
		for _, sym := range cfg.Symbols {
			bars := series[sym]
			if len(bars) == 0 {
				continue
			}
			records := make([]*domain.PriceBar, len(bars))
			for i := range bars {
				records[i] = &bars[i]
			}
			if err := r.barStore.InsertBulk(ctx, records); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				return nil, fmt.Errorf("persist bars for %s: %w", sym, err)
			}
		}
	}

	if r.tradeStore != nil {
		records := make([]*domain.TradeRecord, len(result.Trades))
		for i, t := range result.Trades {
			records[i] = &domain.TradeRecord{
				TradeID:     idhash.ComputeTradeID(result.RunID, t.Symbol, t.EntryTimeMs, t.ExitTimeMs),
				RunID:       result.RunID,
				Source:      domain.SourceBacktest,
				ClosedTrade: t,
			}
		}
		if err := r.tradeStore.InsertBulk(ctx, records); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("persist trades: %w", err)
		}
	}

	if r.equityStore != nil {
		points := make([]*domain.EquityCurvePoint, len(result.EquityCurve))
		for i := range result.EquityCurve {
			points[i] = &result.EquityCurve[i]
		}
		if err := r.equityStore.InsertBulk(ctx, result.RunID, points); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("persist equity curve: %w", err)
		}
	}

	observability.RecordBacktestRun(time.Since(started).Seconds(), len(result.Trades))
	return result, nil
}
