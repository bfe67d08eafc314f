// Package api is the HTTP client for the agent backend: request transport
// with correlation/tenant header injection, failure classification, and
// retry with exponential back-off.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/logging"
)

// Client issues JSON requests against the agent backend. All failures are
// classified into *APIError and transient ones retried per the policy
// before the caller ever sees them.
type Client struct {
	baseURL string
	http    *http.Client
	policy  RetryPolicy
	tenant  *TenantScope
	log     *logging.Logger
}

// ClientConfig configures a Client. BaseURL is required.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration // per-request budget; default 30s
	Policy     RetryPolicy   // zero value selects DefaultRetryPolicy
	Tenant     *TenantScope  // nil creates a fresh "default" scope
	Logger     *logging.Logger
	HTTPClient *http.Client // optional override, used in tests
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	policy := cfg.Policy
	if policy.MaxRetries == 0 && policy.InitialDelay == 0 {
		policy = DefaultRetryPolicy()
	}

	tenant := cfg.Tenant
	if tenant == nil {
		tenant = NewTenantScope("")
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New(io.Discard, "silent")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		policy:  policy,
		tenant:  tenant,
		log:     log.Sub("api"),
	}
}

// Tenant returns the injected tenant scope.
func (c *Client) Tenant() *TenantScope { return c.tenant }

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient returns the underlying HTTP client. The streaming opener
// reuses its transport, minus the per-request timeout.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, out)
}

// do runs the retry loop. The attempt count is an explicit loop variable,
// never attached to request state, so concurrent calls cannot interfere.
// A non-nil error from do is always *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindUnknown, Message: fmt.Sprintf("marshal request: %v", err), cause: err}
		}
	}

	for attempt := 0; ; attempt++ {
		apiErr := c.attempt(ctx, method, path, query, payload, out)
		if apiErr == nil {
			return nil
		}

		if !c.policy.ShouldRetry(method, attempt, apiErr) {
			return apiErr
		}

		delay := c.policy.Delay(attempt, apiErr)
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Int("maxRetries", c.policy.MaxRetries).
			Dur("delay", delay).
			Str("kind", string(apiErr.Kind)).
			Msg("retrying request")

		select {
		case <-ctx.Done():
			return Classify(ctx.Err(), nil, nil)
		case <-time.After(delay):
		}
	}
}

// attempt issues the request once and classifies any failure.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out any) *APIError {
	target := c.baseURL + path
	tenantID := c.tenant.Current()

	// Session-management endpoints are tenant-scoped via query param;
	// agent endpoints carry the tenant in the body instead.
	if strings.Contains(path, "/sessions") {
		if query == nil {
			query = url.Values{}
		}
		query.Set("tenant_id", tenantID)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return &APIError{Kind: KindUnknown, Message: fmt.Sprintf("build request: %v", err), cause: err}
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Classify(err, nil, nil)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("failed to close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(err, nil, nil)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("requestId", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Classify(nil, resp, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{
				Kind:      KindUnknown,
				Message:   fmt.Sprintf("decode response: %v", err),
				RequestID: resp.Header.Get("X-Request-ID"),
				cause:     err,
			}
		}
	}

	return nil
}
