package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dip-strategy-lab/internal/domain"
)

// countingProvider counts calls that reach the underlying vendor.
type countingProvider struct {
	intradayCalls   int
	historicalCalls int
	statusCalls     int
	err             error
}

func (p *countingProvider) IntradayPrices(ctx context.Context, symbol string, date time.Time, intervalMinutes int) ([]domain.PriceBar, error) {
	p.intradayCalls++
	if p.err != nil {
		return nil, p.err
	}
	return []domain.PriceBar{{Symbol: symbol, TimestampMs: 1000, Close: 100}}, nil
}

func (p *countingProvider) HistoricalData(ctx context.Context, symbol string, start, end time.Time, interval string) ([]domain.PriceBar, error) {
	p.historicalCalls++
	if p.err != nil {
		return nil, p.err
	}
	return []domain.PriceBar{{Symbol: symbol, TimestampMs: 2000, Close: 200}}, nil
}

func (p *countingProvider) IsMarketOpen(ctx context.Context, at time.Time) bool {
	p.statusCalls++
	return true
}

func TestCachingProviderIntradayMemoizes(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachingProvider(inner)
	ctx := context.Background()
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		bars, err := c.IntradayPrices(ctx, "AAPL", date, 1)
		require.NoError(t, err)
		require.Len(t, bars, 1)
	}
	assert.Equal(t, 1, inner.intradayCalls, "repeat lookups must hit the cache")

	// A different date is a different key.
	_, err := c.IntradayPrices(ctx, "AAPL", date.AddDate(0, 0, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.intradayCalls)

	// So is a different interval.
	_, err = c.IntradayPrices(ctx, "AAPL", date, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.intradayCalls)
}

func TestCachingProviderHistoricalMemoizes(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachingProvider(inner)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := c.HistoricalData(ctx, "AAPL", start, end, "1d")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.historicalCalls)

	_, err := c.HistoricalData(ctx, "AAPL", start, end, "60m")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.historicalCalls)
}

func TestCachingProviderDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{err: errors.New("vendor down")}
	c := NewCachingProvider(inner)
	ctx := context.Background()
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := c.IntradayPrices(ctx, "AAPL", date, 1)
	require.Error(t, err)
	_, err = c.IntradayPrices(ctx, "AAPL", date, 1)
	require.Error(t, err)
	assert.Equal(t, 2, inner.intradayCalls, "failures must not be cached")

	// Recovery: the next lookup reaches the vendor and is then cached.
	inner.err = nil
	_, err = c.IntradayPrices(ctx, "AAPL", date, 1)
	require.NoError(t, err)
	_, err = c.IntradayPrices(ctx, "AAPL", date, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.intradayCalls)
}

func TestCachingProviderStatusNeverCached(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachingProvider(inner)
	ctx := context.Background()

	now := time.Now()
	assert.True(t, c.IsMarketOpen(ctx, now))
	assert.True(t, c.IsMarketOpen(ctx, now))
	assert.Equal(t, 2, inner.statusCalls)
}
