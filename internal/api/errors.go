package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind is the closed set of normalized failure categories.
type ErrorKind string

const (
	KindNetwork            ErrorKind = "NETWORK"
	KindTimeout            ErrorKind = "TIMEOUT"
	KindValidation         ErrorKind = "VALIDATION"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindSessionExpired     ErrorKind = "SESSION_EXPIRED"
	KindRateLimit          ErrorKind = "RATE_LIMIT"
	KindServerError        ErrorKind = "SERVER_ERROR"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
	KindUnknown            ErrorKind = "UNKNOWN"
)

// defaultRetryAfter is used when a 429 carries no usable Retry-After header.
const defaultRetryAfter = 60 * time.Second

// APIError is a normalized failure record for one request. It exists only
// for the duration of that request's failure handling and is never stored.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // zero when no response was received
	Retryable  bool
	RetryAfter time.Duration   // server hint, zero when absent
	RequestID  string          // correlation id echoed by the server
	Context    json.RawMessage // raw response payload, if any

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *APIError) Unwrap() error { return e.cause }

// Canceled reports whether the failure was caller-initiated cancellation.
// Cancellation is not a failure: it is suppressed from user-facing surfaces.
func (e *APIError) Canceled() bool {
	return errors.Is(e.cause, context.Canceled)
}

// errorBody is the backend's error payload shape. `detail` is either a
// plain string or a list of field errors (FastAPI validation style).
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type fieldError struct {
	Field   string   `json:"field"`
	Message string   `json:"message"`
	Loc     []any    `json:"loc"`
	Msg     string   `json:"msg"`
}

// Classify maps a raw transport failure or non-2xx response into an
// APIError. It is pure and total: every input produces exactly one result,
// and neither err, resp, nor body is mutated. Exactly one of err and resp
// is expected to be non-nil; body is the already-read response payload.
func Classify(err error, resp *http.Response, body []byte) *APIError {
	if resp == nil {
		return classifyTransport(err)
	}

	requestID := resp.Header.Get("X-Request-ID")
	detail, fieldErrs := parseErrorBody(body)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Context:    json.RawMessage(body),
		cause:      err,
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimit
		apiErr.Retryable = true
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		apiErr.Message = fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.",
			int(apiErr.RetryAfter.Seconds()))

	case resp.StatusCode == http.StatusGone:
		apiErr.Kind = KindSessionExpired
		apiErr.Message = fallback(detail, "Session has expired. Please start a new conversation.")

	case resp.StatusCode == http.StatusNotFound:
		apiErr.Kind = KindNotFound
		apiErr.Message = fallback(detail, "The requested resource was not found.")

	case resp.StatusCode == http.StatusBadRequest || len(fieldErrs) > 0:
		apiErr.Kind = KindValidation
		if len(fieldErrs) > 0 {
			apiErr.Message = joinFieldErrors(fieldErrs)
		} else {
			apiErr.Message = fallback(detail, "Invalid request. Please check your input.")
		}

	case resp.StatusCode == http.StatusServiceUnavailable:
		apiErr.Kind = KindServiceUnavailable
		apiErr.Retryable = true
		apiErr.Message = "Service is temporarily unavailable. Please try again later."

	case resp.StatusCode >= 500:
		apiErr.Kind = KindServerError
		apiErr.Retryable = true
		apiErr.Message = fallback(detail, "A server error occurred. Please try again later.")

	default:
		apiErr.Kind = KindUnknown
		apiErr.Message = fallback(detail, "An unexpected error occurred.")
	}

	return apiErr
}

// classifyTransport handles failures where no response was received.
func classifyTransport(err error) *APIError {
	switch {
	case errors.Is(err, context.Canceled):
		return &APIError{
			Kind:      KindTimeout,
			Message:   "Request cancelled.",
			Retryable: false,
			cause:     err,
		}
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return &APIError{
			Kind:      KindTimeout,
			Message:   "Request timed out. Please try again.",
			Retryable: true,
			cause:     err,
		}
	default:
		return &APIError{
			Kind:      KindNetwork,
			Message:   "Network connection failed. Please check your connection.",
			Retryable: true,
			cause:     err,
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseRetryAfter accepts delta-seconds or an HTTP date, defaulting to 60s.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}

// parseErrorBody extracts the detail string or validation field list.
func parseErrorBody(body []byte) (string, []fieldError) {
	if len(body) == 0 {
		return "", nil
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", nil
	}
	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return s, nil
		}
		var fe []fieldError
		if err := json.Unmarshal(eb.Detail, &fe); err == nil {
			return "", fe
		}
	}
	return eb.Error, nil
}

func joinFieldErrors(fieldErrs []fieldError) string {
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field
		if field == "" && len(fe.Loc) > 0 {
			field = fmt.Sprint(fe.Loc[len(fe.Loc)-1])
		}
		msg := fe.Message
		if msg == "" {
			msg = fe.Msg
		}
		switch {
		case field != "" && msg != "":
			parts = append(parts, field+": "+msg)
		case msg != "":
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return "Invalid request. Please check your input."
	}
	return strings.Join(parts, "; ")
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
