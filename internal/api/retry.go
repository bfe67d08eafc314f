package api

import (
	"math"
	"math/rand"
	"net/http"
	"time"
)

// retryableMethods are the HTTP methods eligible for automatic retry.
// POST is excluded: the agent endpoints make no idempotency guarantee.
var retryableMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// RetryPolicy decides whether and when a failed request is re-issued.
type RetryPolicy struct {
	MaxRetries   int           // retries beyond the initial attempt
	InitialDelay time.Duration // first back-off step
	Multiplier   float64       // back-off growth factor
	MaxDelay     time.Duration // back-off ceiling

	// jitter returns a value in [0,1); replaceable in tests.
	jitter func() float64
}

// DefaultRetryPolicy returns the production policy: 3 retries, 1s initial
// delay doubling per attempt, capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     30 * time.Second,
	}
}

// ShouldRetry reports whether a request that failed with apiErr on the
// given 0-based attempt should be re-issued.
func (p RetryPolicy) ShouldRetry(method string, attempt int, apiErr *APIError) bool {
	if attempt >= p.MaxRetries {
		return false
	}
	if apiErr == nil || !apiErr.Retryable {
		return false
	}
	if !retryableMethods[method] {
		return false
	}
	// 4xx other than 429 is permanent regardless of anything else.
	if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

// Delay computes how long to wait before the given 0-based attempt is
// re-issued: exponential back-off with up to +10% jitter, capped at
// MaxDelay. A rate-limited error's server hint overrides the back-off.
func (p RetryPolicy) Delay(attempt int, apiErr *APIError) time.Duration {
	if apiErr != nil && apiErr.Kind == KindRateLimit && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	jitter := p.jitter
	if jitter == nil {
		jitter = rand.Float64
	}

	base := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	delay := time.Duration(base + jitter()*0.1*base)
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
