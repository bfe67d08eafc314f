package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respWith(status int, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		body      string
		wantKind  ErrorKind
		retryable bool
	}{
		{name: "bad request", status: 400, body: `{"detail":"missing message"}`, wantKind: KindValidation},
		{name: "not found", status: 404, wantKind: KindNotFound},
		{name: "gone", status: 410, wantKind: KindSessionExpired},
		{name: "rate limited", status: 429, wantKind: KindRateLimit, retryable: true},
		{name: "internal error", status: 500, wantKind: KindServerError, retryable: true},
		{name: "bad gateway", status: 502, wantKind: KindServerError, retryable: true},
		{name: "unavailable", status: 503, wantKind: KindServiceUnavailable, retryable: true},
		{name: "gateway timeout", status: 504, wantKind: KindServerError, retryable: true},
		{name: "teapot", status: 418, wantKind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := Classify(nil, respWith(tt.status, tt.headers), []byte(tt.body))
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.retryable, apiErr.Retryable)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestClassifyValidationFieldList(t *testing.T) {
	body := `{"detail":[{"field":"message","message":"must not be empty"},{"field":"tenant_id","message":"unknown tenant"}]}`
	apiErr := Classify(nil, respWith(422, nil), []byte(body))

	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.False(t, apiErr.Retryable)
	assert.Equal(t, "message: must not be empty; tenant_id: unknown tenant", apiErr.Message)
}

func TestClassifyValidationPydanticStyle(t *testing.T) {
	body := `{"detail":[{"loc":["body","message"],"msg":"field required"}]}`
	apiErr := Classify(nil, respWith(422, nil), []byte(body))

	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, "message: field required", apiErr.Message)
}

func TestClassifyDetailStringUsedAsMessage(t *testing.T) {
	apiErr := Classify(nil, respWith(404, nil), []byte(`{"detail":"Session not found"}`))
	assert.Equal(t, KindNotFound, apiErr.Kind)
	assert.Equal(t, "Session not found", apiErr.Message)
}

func TestClassifyRetryAfterSeconds(t *testing.T) {
	apiErr := Classify(nil, respWith(429, map[string]string{"Retry-After": "15"}), nil)
	assert.Equal(t, 15*time.Second, apiErr.RetryAfter)
}

func TestClassifyRetryAfterMissingDefaults(t *testing.T) {
	apiErr := Classify(nil, respWith(429, nil), nil)
	assert.Equal(t, 60*time.Second, apiErr.RetryAfter)
}

func TestClassifyRetryAfterGarbageDefaults(t *testing.T) {
	apiErr := Classify(nil, respWith(429, map[string]string{"Retry-After": "soon"}), nil)
	assert.Equal(t, 60*time.Second, apiErr.RetryAfter)
}

func TestClassifyRetryAfterHTTPDate(t *testing.T) {
	at := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	apiErr := Classify(nil, respWith(429, map[string]string{"Retry-After": at}), nil)
	assert.Greater(t, apiErr.RetryAfter, 20*time.Second)
	assert.LessOrEqual(t, apiErr.RetryAfter, 30*time.Second)
}

func TestClassifyRequestIDEchoed(t *testing.T) {
	apiErr := Classify(nil, respWith(500, map[string]string{"X-Request-ID": "req-123"}), nil)
	assert.Equal(t, "req-123", apiErr.RequestID)
}

func TestClassifyMalformedBodyFallsBack(t *testing.T) {
	apiErr := Classify(nil, respWith(500, nil), []byte("<html>oops</html>"))
	assert.Equal(t, KindServerError, apiErr.Kind)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClassifyTransportTimeout(t *testing.T) {
	apiErr := Classify(context.DeadlineExceeded, nil, nil)
	assert.Equal(t, KindTimeout, apiErr.Kind)
	assert.True(t, apiErr.Retryable)
	assert.Zero(t, apiErr.StatusCode)
}

func TestClassifyTransportCanceled(t *testing.T) {
	apiErr := Classify(context.Canceled, nil, nil)
	assert.Equal(t, KindTimeout, apiErr.Kind)
	assert.False(t, apiErr.Retryable)
	assert.True(t, apiErr.Canceled())
}

func TestClassifyTransportNetwork(t *testing.T) {
	apiErr := Classify(errors.New("connection refused"), nil, nil)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.Retryable)
}

func TestAPIErrorFormatting(t *testing.T) {
	withStatus := &APIError{Kind: KindServerError, StatusCode: 500, Message: "boom"}
	assert.Equal(t, "SERVER_ERROR (500): boom", withStatus.Error())

	withoutStatus := &APIError{Kind: KindNetwork, Message: "down"}
	assert.Equal(t, "NETWORK: down", withoutStatus.Error())
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	apiErr := Classify(cause, nil, nil)
	assert.True(t, errors.Is(apiErr, cause))
}
