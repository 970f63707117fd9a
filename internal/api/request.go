package api

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/wiroj/stocketl/internal/metrics"
)

// Function selects the upstream query type.
type Function string

// Supported API functions.
const (
	FuncTopMovers     Function = "TOP_GAINERS_LOSERS"
	FuncDailySeries   Function = "TIME_SERIES_DAILY"
	FuncNewsSentiment Function = "NEWS_SENTIMENT"
	FuncOverview      Function = "OVERVIEW"
)

// APIError represents a non-success response from the upstream API.
type APIError struct {
	StatusCode int
	Function   Function
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream api error %d on %s", e.StatusCode, e.Function)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// doRequest performs a single GET for the given function and parameters.
func (c *Client) doRequest(ctx context.Context, fn Function, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("function", string(fn))
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APICalls.WithLabelValues(string(fn), "failure").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APICalls.WithLabelValues(string(fn), "failure").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		metrics.APICalls.WithLabelValues(string(fn), "failure").Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Function:   fn,
			Body:       body,
		}
	}

	metrics.APICalls.WithLabelValues(string(fn), "success").Inc()
	return body, nil
}

// get performs a GET with exponential backoff retry on retryable errors.
func (c *Client) get(ctx context.Context, fn Function, params url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && backoff > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"function", fn,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, fn, params)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
