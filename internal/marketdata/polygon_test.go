package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggsPayload = `{
	"status": "OK",
	"resultsCount": 2,
	"results": [
		{"o": 101, "h": 103, "l": 100, "c": 102, "v": 5000, "t": 1704902400000},
		{"o": 100, "h": 102, "l": 99, "c": 101, "v": 4000, "t": 1704816000000}
	]
}`

func TestIntradayPricesParsesAggs(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, aggsPayload)
	}))
	defer srv.Close()

	client := NewPolygonClient("test-key", WithBaseURL(srv.URL))

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	bars, err := client.IntradayPrices(context.Background(), "AAPL", date, 1)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "/v2/aggs/ticker/AAPL/range/1/minute/2024-01-10/2024-01-10", gotPath)
	assert.Contains(t, gotQuery, "apiKey=test-key")

	// Vendor order is not trusted; bars come back sorted.
	assert.Equal(t, int64(1704816000000), bars[0].TimestampMs)
	assert.Equal(t, int64(1704902400000), bars[1].TimestampMs)
	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.InDelta(t, 101, bars[0].Close, 1e-9)
	assert.InDelta(t, 4000, bars[0].Volume, 1e-9)
}

func TestHistoricalDataGranularityPaths(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, aggsPayload)
	}))
	defer srv.Close()

	client := NewPolygonClient("k", WithBaseURL(srv.URL))
	ctx := context.Background()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := client.HistoricalData(ctx, "MSFT", start, end, "1d")
	require.NoError(t, err)
	assert.Equal(t, "/v2/aggs/ticker/MSFT/range/1/day/2024-01-02/2024-02-01", gotPath)

	_, err = client.HistoricalData(ctx, "MSFT", start, end, "30m")
	require.NoError(t, err)
	assert.Equal(t, "/v2/aggs/ticker/MSFT/range/30/minute/2024-01-02/2024-02-01", gotPath)
}

func TestFetchAggsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "resultsCount": 0, "results": []}`)
	}))
	defer srv.Close()

	client := NewPolygonClient("k", WithBaseURL(srv.URL))
	bars, err := client.HistoricalData(context.Background(), "EMPTY",
		time.Now().AddDate(0, -1, 0), time.Now(), "1d")
	require.NoError(t, err)
	assert.Empty(t, bars, "missing data is an empty series, not an error")
}

func TestGetRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, aggsPayload)
	}))
	defer srv.Close()

	client := NewPolygonClient("k",
		WithBaseURL(srv.URL),
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond))

	bars, err := client.IntradayPrices(context.Background(), "AAPL",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGetFailsFastOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewPolygonClient("k",
		WithBaseURL(srv.URL),
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond))

	_, err := client.IntradayPrices(context.Background(), "NOPE",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "client errors must not retry")
}

func TestGetExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewPolygonClient("k",
		WithBaseURL(srv.URL),
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond))

	_, err := client.IntradayPrices(context.Background(), "AAPL",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load(), "initial attempt plus two retries")
}

func TestIsMarketOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/marketstatus/now", r.URL.Path)
		fmt.Fprint(w, `{"market": "open"}`)
	}))
	defer srv.Close()

	client := NewPolygonClient("k", WithBaseURL(srv.URL))
	ctx := context.Background()

	wednesday := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 1, 13, 15, 0, 0, 0, time.UTC)

	assert.True(t, client.IsMarketOpen(ctx, wednesday))
	assert.False(t, client.IsMarketOpen(ctx, saturday))
}

func TestIsMarketOpenDegradesToClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewPolygonClient("k",
		WithBaseURL(srv.URL),
		WithMaxRetries(0),
		WithRetryDelay(time.Millisecond))

	wednesday := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	assert.False(t, client.IsMarketOpen(context.Background(), wednesday))
}
