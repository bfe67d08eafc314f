package api

// Endpoint paths for the agent backend. Agent operations are unprefixed;
// session management lives under /api/v1 (backend routing quirk).
const (
	EndpointCreateSession = "/agent/sessions"
	EndpointSendMessage   = "/agent/messages"
	EndpointMessageStream = "/agent/messages/stream"
	EndpointSessions      = "/api/v1/sessions/"
	EndpointHealth        = "/health"
)

// SessionHistoryPath returns the history endpoint for a session.
func SessionHistoryPath(sessionID string) string {
	return "/api/v1/sessions/" + sessionID + "/history"
}

// SessionDeletePath returns the delete endpoint for a session.
func SessionDeletePath(sessionID string) string {
	return "/api/v1/sessions/" + sessionID
}

// CreateSessionRequest starts a new conversation session.
type CreateSessionRequest struct {
	TenantID string         `json:"tenant_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateSessionResponse is the backend's session-creation reply.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// MessageRequest sends one user turn. Stream selects the SSE endpoint.
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	TenantID  string `json:"tenant_id"`
	Stream    bool   `json:"stream"`
}

// ToolCallInfo reports one tool invocation made while answering.
type ToolCallInfo struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
}

// ResponseMetadata carries per-exchange bookkeeping from the backend.
type ResponseMetadata struct {
	ToolCalls        []ToolCallInfo `json:"tool_calls,omitempty"`
	ProcessingTimeMS float64        `json:"processing_time_ms,omitempty"`
	TurnCount        int            `json:"turn_count,omitempty"`
}

// MessageResponse is the non-streaming reply to a user turn.
type MessageResponse struct {
	SessionID string           `json:"session_id"`
	Response  string           `json:"response"`
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp,omitempty"`
	Metadata  ResponseMetadata `json:"metadata,omitempty"`
}

// SessionSummary is one row in the tenant's session list.
type SessionSummary struct {
	SessionID    string `json:"session_id"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
	LastActivity string `json:"last_activity"`
}

// ListSessionsResponse is the session list for a tenant.
type ListSessionsResponse struct {
	Sessions   []SessionSummary `json:"sessions"`
	TotalCount int              `json:"total_count"`
}

// HistoryMessage is one stored turn in a session's history.
type HistoryMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	ToolCalls []ToolCallInfo `json:"tool_calls,omitempty"`
}

// SessionHistoryResponse is the full transcript of one session.
type SessionHistoryResponse struct {
	SessionID    string           `json:"session_id"`
	Messages     []HistoryMessage `json:"messages"`
	MessageCount int              `json:"message_count"`
}

// DeleteSessionResponse confirms a session deletion.
type DeleteSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HealthResponse is the liveness probe reply.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service,omitempty"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
