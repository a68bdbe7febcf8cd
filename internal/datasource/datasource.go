// Package datasource fetches per-ticker metric snapshots from financial data
// providers. It defines a common MetricSource interface, concrete sources for
// the Yahoo Finance quoteSummary API and the finance-go client, a fallback
// chain, and a bounded concurrent Fetcher.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/investscout/pkg/models"
)

// MetricSource produces a raw metric snapshot for one ticker.
type MetricSource interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// FetchMetrics returns the provider's current metrics for the ticker.
	FetchMetrics(ctx context.Context, ticker string) (*models.RawMetrics, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved or has no price.
var ErrTickerNotFound = fmt.Errorf("ticker not found")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = fmt.Errorf("rate limited by data source")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 15 * time.Second

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// positive returns a pointer to v, or nil when v is not strictly positive.
// Providers that zero-fill missing fields report absence this way.
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
