// Package marketdata provides access to ground-truth price series from an
// external market data vendor.
package marketdata

import (
	"context"
	"time"

	"dip-strategy-lab/internal/domain"
)

// Provider fetches price bars and venue status. Implementations degrade to an
// empty series or a closed venue on failure; callers in the simulation and
// validation cores treat a missing series as data unavailable for that one
// lookup, never as a run-level error.
type Provider interface {
	// IntradayPrices returns minute bars for one symbol on one session date,
	// ordered by timestamp ascending.
	IntradayPrices(ctx context.Context, symbol string, date time.Time, intervalMinutes int) ([]domain.PriceBar, error)

	// HistoricalData returns bars for a symbol over [start, end] at the given
	// granularity (1d, 60m, 30m, 15m, 5m, 1m), ordered by timestamp ascending.
	HistoricalData(ctx context.Context, symbol string, start, end time.Time, interval string) ([]domain.PriceBar, error)

	// IsMarketOpen reports whether the venue trades at the given instant.
	IsMarketOpen(ctx context.Context, at time.Time) bool
}
