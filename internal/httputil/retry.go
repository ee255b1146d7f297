package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryConfig is an explicit, per-client retry policy. The zero value
// (and SingleShot) means one attempt per call: a failed request fails
// immediately instead of being retried behind the caller's back.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// SingleShot performs exactly one attempt per call.
var SingleShot = RetryConfig{MaxAttempts: 1}

// DefaultRetry is a bounded exponential backoff for deployments that
// opt in to retrying transient failures.
var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Do executes an HTTP request under the given retry policy. Only
// transport errors and 5xx responses are retried. The last response is
// returned with a nil error even when its status is 5xx, so callers
// classify HTTP failures themselves; a non-nil error means no response
// was obtained at all. The buildReq function is called per attempt so
// request bodies are fresh each time.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = 1 * time.Second
	}

	for attempt := 1; ; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt == cfg.MaxAttempts {
			if err == nil {
				return resp, nil
			}
			if cfg.MaxAttempts == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, err)
		}

		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		fmt.Printf("[RETRY] Attempt %d/%d failed: %v - retrying in %s\n",
			attempt, cfg.MaxAttempts, lastErr, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
