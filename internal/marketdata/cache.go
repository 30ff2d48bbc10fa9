package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/observability"
)

// CachingProvider memoizes vendor lookups for the lifetime of the value.
// Validation re-checks the same trade across iterations, so repeated lookups
// for one symbol/date pair are the common case.
type CachingProvider struct {
	inner Provider

	mu    sync.RWMutex
	intra map[string][]domain.PriceBar
	hist  map[string][]domain.PriceBar
}

// NewCachingProvider wraps a Provider with an in-memory lookup cache.
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		intra: make(map[string][]domain.PriceBar),
		hist:  make(map[string][]domain.PriceBar),
	}
}

// IntradayPrices implements Provider. Failed lookups are not cached.
func (c *CachingProvider) IntradayPrices(ctx context.Context, symbol string, date time.Time, intervalMinutes int) ([]domain.PriceBar, error) {
	key := fmt.Sprintf("%s|%s|%d", symbol, date.UTC().Format("2006-01-02"), intervalMinutes)

	c.mu.RLock()
	bars, ok := c.intra[key]
	c.mu.RUnlock()
	observability.RecordCacheLookup(ok)
	if ok {
		return bars, nil
	}

	bars, err := c.inner.IntradayPrices(ctx, symbol, date, intervalMinutes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.intra[key] = bars
	c.mu.Unlock()
	return bars, nil
}

// HistoricalData implements Provider. Failed lookups are not cached.
func (c *CachingProvider) HistoricalData(ctx context.Context, symbol string, start, end time.Time, interval string) ([]domain.PriceBar, error) {
	key := fmt.Sprintf("%s|%d|%d|%s", symbol, start.UnixMilli(), end.UnixMilli(), interval)

	c.mu.RLock()
	bars, ok := c.hist[key]
	c.mu.RUnlock()
	observability.RecordCacheLookup(ok)
	if ok {
		return bars, nil
	}

	bars, err := c.inner.HistoricalData(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.hist[key] = bars
	c.mu.Unlock()
	return bars, nil
}

// IsMarketOpen implements Provider. Venue status is time-sensitive and is
// never cached.
func (c *CachingProvider) IsMarketOpen(ctx context.Context, at time.Time) bool {
	return c.inner.IsMarketOpen(ctx, at)
}

var _ Provider = (*CachingProvider)(nil)
