package reporting

import (
	"context"
	"fmt"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/metrics"
	"dip-strategy-lab/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	tradeStore  storage.TradeStore
	equityStore storage.EquityCurveStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, equityStore storage.EquityCurveStore) *Generator {
	return &Generator{
		tradeStore:  tradeStore,
		equityStore: equityStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a run's ledger and equity curve and assembles a report.
// The summary is recomputed from the stored trades so the report stays
// consistent with the ledger even when the run's in-memory result is gone.
func (g *Generator) Generate(ctx context.Context, runID string, initialCapital float64, startMs, endMs int64) (*Report, error) {
	trades, err := g.tradeStore.FetchBacktestTrades(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch trades for %s: %w", runID, err)
	}

	curve, err := g.equityStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch equity curve for %s: %w", runID, err)
	}

	closed := make([]domain.ClosedTrade, len(trades))
	for i, t := range trades {
		closed[i] = t.ClosedTrade
	}

	summary := metrics.Compute(closed, initialCapital, startMs, endMs)
	if len(curve) > 0 {
		points := make([]domain.EquityCurvePoint, len(curve))
		for i, p := range curve {
			points[i] = *p
		}
		summary.MaxDrawdown = metrics.MaxDrawdownFromCurve(points)
		if ann := metrics.AnnualizedFromCurve(points); ann != 0 {
			summary.AnnualizedReturn = ann
		}
	}

	return &Report{
		GeneratedAt: g.now(),
		RunID:       runID,
		Summary:     summary,
		Trades:      trades,
		EquityCurve: curve,
	}, nil
}
