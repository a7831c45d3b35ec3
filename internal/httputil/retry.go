// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by the source adapters:
// retry on upstream throttling and per-host request pacing.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429/503 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// MaxRetryAfter caps how long a server-supplied Retry-After may stall a
// request. Anything longer is treated as a failure by the caller.
var MaxRetryAfter = 5 * time.Second

const defaultMaxRetries = 2

// DoWithRetry executes an HTTP request and retries when the upstream says it
// is throttled (429) or temporarily unavailable (503). The delay starts at
// RetryBaseDelay and doubles each attempt, unless the response carries a
// Retry-After header in seconds, which wins up to MaxRetryAfter.
//
// When maxRetries is 0 the default (2) is used. The body of every retried
// response is drained and closed. If the context is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting retries the
// last response is returned so the caller can inspect it.
//
// When limiter is non-nil every attempt first waits for the host's rate
// limit.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, limiter *Limiter) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx, req.URL.Host); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		backoff := backoffFor(resp, attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func backoffFor(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			d := time.Duration(secs) * time.Second
			if d > MaxRetryAfter {
				d = MaxRetryAfter
			}
			return d
		}
	}
	return RetryBaseDelay << attempt
}
