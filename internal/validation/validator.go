// Package validation cross-checks trade ledgers against ground-truth market
// data and repairs discrepancies within a bounded iteration budget.
package validation

import (
	"context"
	"fmt"
	"sync"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/marketdata"
	"dip-strategy-lab/internal/observability"
	"dip-strategy-lab/internal/publisher"
	"dip-strategy-lab/internal/storage"
)

// Defaults for validator tuning knobs.
const (
	DefaultMaxIterations  = 10
	DefaultPriceTolerance = 0.01 // relative
	DefaultPnLTolerance   = 0.01 // absolute, dollars
	DefaultWorkers        = 4
)

// Validator runs the check/correct loop. Each Run owns a private working
// copy of its trade set; a single Validator may serve concurrent runs.
type Validator struct {
	provider   marketdata.Provider
	tradeStore storage.TradeStore
	publisher  publisher.Publisher

	maxIterations  int
	priceTolerance float64
	pnlTolerance   float64
	workers        int
}

// Options contains configuration for creating a Validator.
type Options struct {
	// Provider supplies ground-truth prices. Required.
	Provider marketdata.Provider
	// TradeStore backs requests that carry only a run ID. Optional.
	TradeStore storage.TradeStore
	// Publisher receives the terminal result. Optional; nil means no-op.
	Publisher publisher.Publisher

	MaxIterations  int     // default 10
	PriceTolerance float64 // relative, default 0.01
	PnLTolerance   float64 // absolute dollars, default 0.01
	Workers        int     // per-iteration check parallelism, default 4
}

// New creates a Validator. Lookups are memoized per symbol/date through a
// caching layer since iterations re-check the same trades.
func New(opts Options) (*Validator, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: market data provider is required", storage.ErrInvalidInput)
	}

	v := &Validator{
		provider:       marketdata.NewCachingProvider(opts.Provider),
		tradeStore:     opts.TradeStore,
		publisher:      opts.Publisher,
		maxIterations:  opts.MaxIterations,
		priceTolerance: opts.PriceTolerance,
		pnlTolerance:   opts.PnLTolerance,
		workers:        opts.Workers,
	}
	if v.publisher == nil {
		v.publisher = publisher.Noop{}
	}
	if v.maxIterations <= 0 {
		v.maxIterations = DefaultMaxIterations
	}
	if v.priceTolerance <= 0 {
		v.priceTolerance = DefaultPriceTolerance
	}
	if v.pnlTolerance <= 0 {
		v.pnlTolerance = DefaultPnLTolerance
	}
	if v.workers <= 0 {
		v.workers = DefaultWorkers
	}
	return v, nil
}

// Request describes one validation run.
type Request struct {
	RunID  string
	Source domain.TradeSource

	// Trades is the set to validate. When empty the validator fetches the
	// run's ledger from the trade store.
	Trades []domain.TradeRecord

	// MaxIterations and PriceTolerance override the validator defaults when
	// positive.
	MaxIterations  int
	PriceTolerance float64
}

// Run executes the bounded check/correct loop:
//
//	state[i+1] = apply(corrections(check(state[i])))
//
// terminating on an empty anomaly set or the iteration budget. Cancellation
// is honored at iteration boundaries only. The terminal result is also
// handed to the publisher, fire-and-forget.
func (v *Validator) Run(ctx context.Context, req Request) (*domain.ValidationResult, error) {
	maxIter := v.maxIterations
	if req.MaxIterations > 0 {
		maxIter = req.MaxIterations
	}
	tolerance := v.priceTolerance
	if req.PriceTolerance > 0 {
		tolerance = req.PriceTolerance
	}

	trades := req.Trades
	if len(trades) == 0 && v.tradeStore != nil {
		fetched, err := v.fetchTrades(ctx, req.RunID, req.Source)
		if err != nil {
			return nil, err
		}
		trades = fetched
	}

	if len(trades) == 0 {
		result := &domain.ValidationResult{
			RunID:        req.RunID,
			Status:       domain.StatusPassed,
			TotalChecked: 0,
		}
		return result, nil
	}

	var allCorrections []domain.Correction

	for iteration := 0; iteration < maxIter; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		anomalies := v.runChecks(ctx, trades, tolerance)
		if len(anomalies) == 0 {
			status := domain.StatusPassed
			if len(allCorrections) > 0 {
				status = domain.StatusCorrected
			}
			result := &domain.ValidationResult{
				RunID:          req.RunID,
				Status:         status,
				TotalChecked:   len(trades),
				Corrections:    allCorrections,
				IterationsUsed: iteration + 1,
			}
			v.record(result)
			v.publish(ctx, result)
			return result, nil
		}

		corrections := buildCorrections(anomalies)
		allCorrections = append(allCorrections, corrections...)
		trades = applyCorrections(trades, corrections)
	}

	// Budget exhausted: report whatever still fails.
	remaining := v.runChecks(ctx, trades, tolerance)
	result := &domain.ValidationResult{
		RunID:          req.RunID,
		Status:         domain.StatusFailed,
		TotalChecked:   len(trades),
		Anomalies:      remaining,
		Corrections:    allCorrections,
		Suggestions:    generateSuggestions(remaining),
		IterationsUsed: maxIter,
	}
	v.record(result)
	v.publish(ctx, result)
	return result, nil
}

// record exports the terminal outcome as Prometheus metrics.
func (v *Validator) record(result *domain.ValidationResult) {
	observability.RecordValidationRun(result.Status, result.IterationsUsed)
	for _, a := range result.Anomalies {
		observability.RecordAnomaly(a.Type)
	}
	for _, c := range result.Corrections {
		observability.RecordCorrection(c.Type)
	}
}

// runChecks checks every trade, in parallel across workers, and merges
// results by stable trade index so discovery order never changes which
// anomalies get corrected.
func (v *Validator) runChecks(ctx context.Context, trades []domain.TradeRecord, tolerance float64) []domain.Anomaly {
	perTrade := make([][]domain.Anomaly, len(trades))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < v.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				perTrade[idx] = v.checkTrade(ctx, trades[idx], tolerance)
			}
		}()
	}
	for idx := range trades {
		indexes <- idx
	}
	close(indexes)
	wg.Wait()

	var merged []domain.Anomaly
	for idx, issues := range perTrade {
		for _, a := range issues {
			a.TradeIndex = idx
			a.Symbol = trades[idx].Symbol
			merged = append(merged, a)
		}
	}
	return merged
}

// fetchTrades loads a run's ledger from the trade store.
func (v *Validator) fetchTrades(ctx context.Context, runID string, source domain.TradeSource) ([]domain.TradeRecord, error) {
	var (
		records []*domain.TradeRecord
		err     error
	)
	if source == domain.SourcePaper {
		records, err = v.tradeStore.FetchPaperTrades(ctx, runID)
	} else {
		records, err = v.tradeStore.FetchBacktestTrades(ctx, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch trades for run %s: %w", runID, err)
	}

	trades := make([]domain.TradeRecord, len(records))
	for i, r := range records {
		trades[i] = *r
	}
	return trades, nil
}

// publish hands the result downstream. Failures are deliberately ignored;
// validation outcome never depends on delivery.
func (v *Validator) publish(ctx context.Context, result *domain.ValidationResult) {
	_ = v.publisher.Publish(ctx, "validator", "portfolio_manager", "validation_result", result)
}
