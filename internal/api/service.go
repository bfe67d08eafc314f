package api

import (
	"context"
	"net/url"
	"strconv"
)

// CreateSession asks the backend for a fresh agent session under the
// current tenant.
func (c *Client) CreateSession(ctx context.Context, metadata map[string]any) (*CreateSessionResponse, error) {
	req := CreateSessionRequest{
		TenantID: c.tenant.Current(),
		Metadata: metadata,
	}
	var resp CreateSessionResponse
	if err := c.Post(ctx, EndpointCreateSession, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage sends a chat turn and waits for the complete response.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*MessageResponse, error) {
	req := MessageRequest{
		SessionID: sessionID,
		Message:   message,
		TenantID:  c.tenant.Current(),
		Stream:    false,
	}
	var resp MessageResponse
	if err := c.Post(ctx, EndpointSendMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSessions pages through the tenant's sessions.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) (*ListSessionsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	var resp ListSessionsResponse
	if err := c.Get(ctx, EndpointSessions, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionHistory fetches the stored transcript for a session.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) (*SessionHistoryResponse, error) {
	var resp SessionHistoryResponse
	if err := c.Get(ctx, SessionHistoryPath(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSession removes a session and its history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (*DeleteSessionResponse, error) {
	var resp DeleteSessionResponse
	if err := c.Delete(ctx, SessionDeletePath(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes backend liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.Get(ctx, EndpointHealth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
