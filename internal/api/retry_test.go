package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.jitter = func() float64 { return 0 }
	return p
}

func TestShouldRetryIdempotentMethods(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindServiceUnavailable, StatusCode: 503, Retryable: true}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodHead, http.MethodOptions} {
		assert.True(t, p.ShouldRetry(method, 0, err), method)
	}
}

func TestShouldRetryNeverPost(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindServiceUnavailable, StatusCode: 503, Retryable: true}

	for attempt := 0; attempt < p.MaxRetries; attempt++ {
		assert.False(t, p.ShouldRetry(http.MethodPost, attempt, err))
	}
}

func TestShouldRetryExhaustsAtMaxRetries(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindNetwork, Retryable: true}

	assert.True(t, p.ShouldRetry(http.MethodGet, 0, err))
	assert.True(t, p.ShouldRetry(http.MethodGet, 2, err))
	assert.False(t, p.ShouldRetry(http.MethodGet, 3, err))
	assert.False(t, p.ShouldRetry(http.MethodGet, 10, err))
}

func TestShouldRetryPermanentClientErrors(t *testing.T) {
	p := testPolicy()

	for _, status := range []int{400, 401, 403, 404, 410, 422} {
		err := &APIError{StatusCode: status, Retryable: true}
		assert.False(t, p.ShouldRetry(http.MethodGet, 0, err), "status %d", status)
	}

	rateLimited := &APIError{Kind: KindRateLimit, StatusCode: 429, Retryable: true}
	assert.True(t, p.ShouldRetry(http.MethodGet, 0, rateLimited))
}

func TestShouldRetryNonRetryableError(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindValidation, StatusCode: 400, Retryable: false}
	assert.False(t, p.ShouldRetry(http.MethodGet, 0, err))
	assert.False(t, p.ShouldRetry(http.MethodGet, 0, nil))
}

func TestDelayGrowsMonotonically(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindNetwork, Retryable: true}

	prev := time.Duration(-1)
	for attempt := 0; attempt < 8; attempt++ {
		d := p.Delay(attempt, err)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestDelayExponentialSteps(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindNetwork, Retryable: true}

	assert.Equal(t, time.Second, p.Delay(0, err))
	assert.Equal(t, 2*time.Second, p.Delay(1, err))
	assert.Equal(t, 4*time.Second, p.Delay(2, err))
}

func TestDelayCappedAtMax(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindNetwork, Retryable: true}

	assert.Equal(t, p.MaxDelay, p.Delay(20, err))
}

func TestDelayJitterBounded(t *testing.T) {
	p := DefaultRetryPolicy()
	err := &APIError{Kind: KindNetwork, Retryable: true}

	for i := 0; i < 100; i++ {
		d := p.Delay(0, err)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 1100*time.Millisecond)
	}
}

func TestDelayRetryAfterOverridesBackoff(t *testing.T) {
	p := testPolicy()
	err := &APIError{Kind: KindRateLimit, StatusCode: 429, Retryable: true, RetryAfter: 45 * time.Second}

	assert.Equal(t, 45*time.Second, p.Delay(0, err))
	assert.Equal(t, 45*time.Second, p.Delay(2, err))
}
