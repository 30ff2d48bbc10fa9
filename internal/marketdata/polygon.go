package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/observability"
)

// Default client configuration.
const (
	DefaultBaseURL     = "https://api.polygon.io"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// PolygonClient implements Provider against a Polygon-style aggregates API.
type PolygonClient struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures PolygonClient.
type ClientOption func(*PolygonClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *PolygonClient) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *PolygonClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *PolygonClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *PolygonClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *PolygonClient) {
		c.client = client
	}
}

// NewPolygonClient creates a new aggregates API client.
func NewPolygonClient(apiKey string, opts ...ClientOption) *PolygonClient {
	c := &PolygonClient{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// aggsResponse is the aggregates endpoint payload.
type aggsResponse struct {
	Status       string      `json:"status"`
	ResultsCount int         `json:"resultsCount"`
	Results      []aggResult `json:"results"`
}

// aggResult is one bar in vendor short-key format.
type aggResult struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // ms
}

// marketStatusResponse is the market status endpoint payload.
type marketStatusResponse struct {
	Market string `json:"market"`
}

// IntradayPrices returns minute bars for one session date.
// Implements Provider.
func (c *PolygonClient) IntradayPrices(ctx context.Context, symbol string, date time.Time, intervalMinutes int) ([]domain.PriceBar, error) {
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	day := date.UTC().Format("2006-01-02")
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/minute/%s/%s",
		url.PathEscape(symbol), intervalMinutes, day, day)
	return c.fetchAggs(ctx, symbol, path)
}

// HistoricalData returns bars over [start, end] at the given granularity.
// Implements Provider.
func (c *PolygonClient) HistoricalData(ctx context.Context, symbol string, start, end time.Time, interval string) ([]domain.PriceBar, error) {
	mult, timespan := 1, "day"
	if iv, err := parseVendorInterval(interval); err == nil && !iv.daily {
		mult, timespan = iv.minutes, "minute"
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(symbol), mult, timespan,
		start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	return c.fetchAggs(ctx, symbol, path)
}

// IsMarketOpen reports venue status for the given instant. Vendor status only
// covers the present, so historical instants use the exchange-local weekday.
// Any transport failure degrades to closed.
// Implements Provider.
func (c *PolygonClient) IsMarketOpen(ctx context.Context, at time.Time) bool {
	var status marketStatusResponse
	started := time.Now()
	err := c.get(ctx, "/v1/marketstatus/now", &status)
	observability.RecordVendorRequest("marketstatus", time.Since(started).Seconds(), err)
	if err != nil {
		return false
	}
	return at.In(Eastern()).Weekday() != time.Saturday && at.In(Eastern()).Weekday() != time.Sunday
}

type vendorInterval struct {
	minutes int
	daily   bool
}

func parseVendorInterval(s string) (vendorInterval, error) {
	switch s {
	case "1d", "":
		return vendorInterval{daily: true}, nil
	case "60m":
		return vendorInterval{minutes: 60}, nil
	case "30m":
		return vendorInterval{minutes: 30}, nil
	case "15m":
		return vendorInterval{minutes: 15}, nil
	case "5m":
		return vendorInterval{minutes: 5}, nil
	case "1m":
		return vendorInterval{minutes: 1}, nil
	default:
		return vendorInterval{}, fmt.Errorf("unsupported interval %q", s)
	}
}

// fetchAggs runs one aggregates query and converts the payload to bars.
// An empty or non-OK response yields an empty series, not an error.
func (c *PolygonClient) fetchAggs(ctx context.Context, symbol, path string) ([]domain.PriceBar, error) {
	var resp aggsResponse
	started := time.Now()
	err := c.get(ctx, path, &resp)
	observability.RecordVendorRequest("aggs", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if resp.Status != "OK" || resp.ResultsCount == 0 {
		return nil, nil
	}

	bars := make([]domain.PriceBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, domain.PriceBar{
			Symbol:      symbol,
			TimestampMs: r.Timestamp,
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			Volume:      r.Volume,
		})
	}
	domain.SortBars(bars)
	return bars, nil
}

// get performs a GET with retries and exponential backoff on transport and
// server errors.
func (c *PolygonClient) get(ctx context.Context, path string, out interface{}) error {
	u := c.baseURL + path
	if c.apiKey != "" {
		sep := "?"
		if parsed, err := url.Parse(u); err == nil && parsed.RawQuery != "" {
			sep = "&"
		}
		u += sep + "apiKey=" + url.QueryEscape(c.apiKey)
	}

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		// Retry server-side failures; client errors are final.
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

var _ Provider = (*PolygonClient)(nil)
