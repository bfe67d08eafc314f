package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/chat"
)

// timeLayout keeps a fixed-width fractional second so stored TEXT
// timestamps order lexicographically the same as chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SessionRecord is one cached session with transcript bookkeeping.
type SessionRecord struct {
	SessionID    string
	TenantID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// TranscriptStore caches finalized conversation messages locally. It
// implements chat.Recorder.
type TranscriptStore struct {
	db *DB
}

// NewTranscriptStore creates a transcript store using the given database.
func NewTranscriptStore(db *DB) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// RecordMessage appends one finalized message to the session's cached
// transcript, creating the session row on first use. Recording the same
// message id twice is a no-op.
func (s *TranscriptStore) RecordMessage(ctx context.Context, tenantID, sessionID string, msg chat.Message) error {
	now := time.Now().UTC().Format(timeLayout)

	if _, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, tenant_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, tenantID, now, now,
	); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	var toolCallsJSON sql.NullString
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		toolCallsJSON = sql.NullString{String: string(data), Valid: true}
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if _, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, timestamp, tool_calls)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO NOTHING`,
		msg.ID, sessionID, string(msg.Role), msg.Content, ts.Format(timeLayout), toolCallsJSON,
	); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// Sessions lists a tenant's cached sessions, most recently active first.
func (s *TranscriptStore) Sessions(ctx context.Context, tenantID string) ([]SessionRecord, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT s.id, s.tenant_id, s.created_at, s.updated_at, COUNT(m.id)
		 FROM sessions s
		 LEFT JOIN messages m ON m.session_id = s.id
		 WHERE s.tenant_id = ?
		 GROUP BY s.id
		 ORDER BY s.updated_at DESC, s.id DESC`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.SessionID, &rec.TenantID, &createdAt, &updatedAt, &rec.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		rec.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Messages returns a session's cached transcript in exchange order.
func (s *TranscriptStore) Messages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT message_id, role, content, timestamp, tool_calls
		 FROM messages WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		var role, timestamp string
		var toolCallsJSON sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &timestamp, &toolCallsJSON); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = chat.Role(role)
		m.Timestamp, _ = time.Parse(timeLayout, timestamp)
		if toolCallsJSON.Valid {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &m.ToolCalls); err != nil {
				s.db.log.Warn().Err(err).Str("message", m.ID).Msg("dropping unreadable tool calls")
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteSession removes a cached session and its messages.
func (s *TranscriptStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
