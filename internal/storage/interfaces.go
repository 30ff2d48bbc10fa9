// Package storage defines persistence interfaces for trade ledgers, price
// bars and equity curves, plus the sentinel errors implementations return.
package storage

import (
	"context"

	"dip-strategy-lab/internal/domain"
)

// TradeStore provides access to trade ledger storage.
type TradeStore interface {
	// Insert adds a single trade record. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trade records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// FetchBacktestTrades retrieves backtest-sourced trades for a run, ordered by exit time ASC.
	FetchBacktestTrades(ctx context.Context, runID string) ([]*domain.TradeRecord, error)

	// FetchPaperTrades retrieves paper-sourced trades for a run, ordered by exit time ASC.
	FetchPaperTrades(ctx context.Context, runID string) ([]*domain.TradeRecord, error)
}

// BarStore provides access to price bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceBar, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceBar, error)
}

// EquityCurveStore provides access to equity curve storage.
type EquityCurveStore interface {
	// InsertBulk adds a run's curve points. Fails entire batch on duplicate (run_id, timestamp_ms).
	InsertBulk(ctx context.Context, runID string, points []*domain.EquityCurvePoint) error

	// GetByRunID retrieves a run's curve, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.EquityCurvePoint, error)
}
