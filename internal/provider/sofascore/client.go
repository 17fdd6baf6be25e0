// Package sofascore fetches match data from the SofaScore public API.
//
// One GET per (league, season) per cycle. Rate limiting is handled via a
// token bucket limiter; the request timeout bounds how long a slow upstream
// can stall a cycle.
package sofascore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.sofascore.com/api/v1"

// Client is the shared HTTP client for all SofaScore endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a SofaScore HTTP client with rate limiting. An empty
// baseURL selects the public API.
func NewClient(baseURL string, timeout time.Duration, requestsPerMinute int, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// get performs a rate-limited GET and decodes the JSON response into out.
// Errors come back classified by kind; league is only used for error context.
func (c *Client) get(ctx context.Context, league, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &FetchError{League: league, Kind: KindUnknown, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{League: league, Kind: KindUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "progol-data/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{League: league, Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{League: league, Kind: KindUnreachable, Err: fmt.Errorf("read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return &FetchError{League: league, Kind: KindRateLimited,
			Err: fmt.Errorf("sofascore %s returned 429", path)}
	default:
		return &FetchError{League: league, Kind: KindUnknown,
			Err: fmt.Errorf("sofascore %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{League: league, Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
