package polar

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy decides how rate limited (HTTP 429) requests are retried.
// Other failures are never retried.
type RetryPolicy struct {
	// MaxAttempts counts the first try.
	MaxAttempts int
	// DefaultBackoff is used when the response carries no usable Retry-After.
	DefaultBackoff time.Duration
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return RetryPolicy{MaxAttempts: maxAttempts, DefaultBackoff: backoff, Sleep: SleepContext}
}

// ShouldRetry reports whether a response on the given attempt (1-based) is retried.
func (p RetryPolicy) ShouldRetry(attempt int, status int) bool {
	return status == http.StatusTooManyRequests && attempt < p.MaxAttempts
}

// Delay reads Retry-After as whole seconds and falls back to DefaultBackoff.
func (p RetryPolicy) Delay(h http.Header) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return p.DefaultBackoff
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return p.Sleep(ctx, d)
}

// SleepContext blocks for d unless ctx ends first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
