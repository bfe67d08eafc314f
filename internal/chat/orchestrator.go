package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/internal/stream"
)

// State is the conversation's send cycle phase. Transitions are
// idle -> sending -> (streaming ->) idle; only an idle conversation
// accepts a new turn.
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
)

// Recorder persists finalized transcript entries. Persistence is best
// effort: failures are logged and never interrupt the conversation.
type Recorder interface {
	RecordMessage(ctx context.Context, tenantID, sessionID string, msg Message) error
}

// Options configures a Conversation.
type Options struct {
	Streaming bool
	Recorder  Recorder
	Logger    *logging.Logger

	// SessionID resumes an existing backend session instead of creating
	// one lazily on the first send.
	SessionID string

	// OnUpdate fires after every transcript mutation, including each
	// streamed chunk. Used by the terminal UI to redraw incrementally.
	OnUpdate func()
}

// Conversation owns one chat transcript against the backend. A session
// is created lazily on the first send and survives until the server
// expires it. Methods are safe for concurrent use; at most one send is
// in flight at a time and extra sends during one are dropped.
type Conversation struct {
	client *api.Client
	opener *stream.Opener
	rec    Recorder
	log    *logging.Logger
	update func()

	mu            sync.Mutex
	sessionID     string
	messages      []Message
	state         State
	active        *stream.Stream
	streamEnabled bool
	turnCount     int
	lastMessageAt time.Time
}

// NewConversation creates an idle conversation with no session.
func NewConversation(client *api.Client, opener *stream.Opener, opts Options) *Conversation {
	log := opts.Logger
	if log == nil {
		log = logging.New(io.Discard, "silent")
	}
	update := opts.OnUpdate
	if update == nil {
		update = func() {}
	}
	return &Conversation{
		client:        client,
		opener:        opener,
		rec:           opts.Recorder,
		log:           log.Sub("chat"),
		update:        update,
		state:         StateIdle,
		streamEnabled: opts.Streaming,
		sessionID:     opts.SessionID,
	}
}

// SetOnUpdate replaces the transcript mutation hook.
func (c *Conversation) SetOnUpdate(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	c.mu.Lock()
	c.update = fn
	c.mu.Unlock()
}

// notify invokes the update hook outside the lock.
func (c *Conversation) notify() {
	c.mu.Lock()
	fn := c.update
	c.mu.Unlock()
	fn()
}

// SessionID returns the current backend session id, empty before the
// first exchange.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// State returns the current send cycle phase.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TurnCount reports how many exchanges have completed in this session.
// It only increases until the session is detached.
func (c *Conversation) TurnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnCount
}

// LastMessageAt is the time the latest exchange settled, zero before
// the first one.
func (c *Conversation) LastMessageAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessageAt
}

// Attach resumes an existing backend session, seeding the transcript
// with its previously fetched history.
func (c *Conversation) Attach(sessionID string, history []Message) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.messages = make([]Message, len(history))
	turns := 0
	for i, m := range history {
		c.messages[i] = m.clone()
		if m.Role == RoleAssistant {
			turns++
		}
	}
	c.turnCount = turns
	c.mu.Unlock()
	c.notify()
}

// Messages returns a snapshot of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.clone()
	}
	return out
}

// Reset clears the transcript and detaches from the current session.
// The next send starts a fresh session.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.sessionID = ""
	c.messages = nil
	c.turnCount = 0
	c.lastMessageAt = time.Time{}
	c.mu.Unlock()
	c.notify()
}

// CancelStreaming aborts an in-progress streamed response. The partial
// text received so far is kept and finalized; cancellation is not an
// error and adds nothing to the transcript.
func (c *Conversation) CancelStreaming() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active != nil {
		active.Cancel()
	}
}

// Send runs one full turn: appends the user message, lazily creates the
// session, exchanges the message (streamed when supported), and appends
// the assistant's reply or a transcript error entry. It blocks until the
// turn settles. A send arriving while another is in flight is dropped.
func (c *Conversation) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.log.Debug().Msg("send dropped, turn already in flight")
		return nil
	}
	c.state = StateSending
	userMsg := newMessage(RoleUser, text)
	c.messages = append(c.messages, userMsg)
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.active = nil
		c.mu.Unlock()
		c.notify()
	}()

	sessionID, err := c.ensureSession(ctx)
	if err != nil {
		c.appendFailure(ctx, err)
		return err
	}
	c.record(ctx, sessionID, userMsg)

	if c.streamingWanted() {
		done, err := c.sendStreaming(ctx, sessionID, text)
		if done {
			return err
		}
		// Streaming endpoint absent; fall through silently.
	}

	return c.sendBlocking(ctx, sessionID, text)
}

func (c *Conversation) streamingWanted() bool {
	return c.streamEnabled && c.opener != nil
}

// ensureSession returns the live session id, creating one on first use.
func (c *Conversation) ensureSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.sessionID != "" {
		id := c.sessionID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	resp, err := c.client.CreateSession(ctx, nil)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.sessionID = resp.SessionID
	c.mu.Unlock()
	c.log.Info().Str("sessionId", resp.SessionID).Msg("session created")
	return resp.SessionID, nil
}

// sendBlocking is the non-streaming exchange.
func (c *Conversation) sendBlocking(ctx context.Context, sessionID, text string) error {
	resp, err := c.client.SendMessage(ctx, sessionID, text)
	if err != nil {
		c.appendFailure(ctx, err)
		return err
	}

	msg := newMessage(RoleAssistant, resp.Response)
	for _, tc := range resp.Metadata.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCallView{Name: tc.Tool, Status: tc.Status})
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.finishTurnLocked(resp.Metadata.TurnCount)
	c.mu.Unlock()
	c.notify()
	c.record(ctx, sessionID, msg)
	return nil
}

// finishTurnLocked records exchange bookkeeping. The server's turn count
// wins when reported; otherwise the local counter advances.
func (c *Conversation) finishTurnLocked(serverTurns int) {
	if serverTurns > c.turnCount {
		c.turnCount = serverTurns
	} else {
		c.turnCount++
	}
	c.lastMessageAt = time.Now().UTC()
}

// sendStreaming attempts the streamed exchange. done reports whether the
// turn was handled here; done=false means the endpoint is unavailable
// and the caller should fall back to the blocking path.
func (c *Conversation) sendStreaming(ctx context.Context, sessionID, text string) (done bool, err error) {
	s, err := c.opener.Open(ctx, api.MessageRequest{SessionID: sessionID, Message: text})
	if errors.Is(err, stream.ErrUnavailable) {
		// Per-call fallback only; the backend may gain the endpoint
		// without the client restarting.
		c.log.Debug().Msg("streaming endpoint unavailable, using blocking request")
		return false, nil
	}
	if err != nil {
		c.appendFailure(ctx, err)
		return true, err
	}

	placeholder := newMessage(RoleAssistant, "")
	placeholder.Streaming = true

	c.mu.Lock()
	c.messages = append(c.messages, placeholder)
	idx := len(c.messages) - 1
	c.state = StateStreaming
	c.active = s
	c.mu.Unlock()
	c.notify()

	var streamErr *api.APIError
	var endMeta api.ResponseMetadata
	for ev := range s.Events() {
		switch ev := ev.(type) {
		case stream.Start:
			// Session id echoed back; nothing to change.

		case stream.Chunk:
			c.mu.Lock()
			c.messages[idx].Content += ev.Content
			c.mu.Unlock()
			c.notify()

		case stream.ToolCall:
			c.mu.Lock()
			c.messages[idx].ToolCalls = append(c.messages[idx].ToolCalls,
				ToolCallView{Name: ev.Tool, Status: ToolPending})
			c.mu.Unlock()
			c.notify()

		case stream.ToolResult:
			c.mu.Lock()
			c.resolveToolLocked(idx, ev.Tool, ev.Status)
			c.mu.Unlock()
			c.notify()

		case stream.End:
			// Channel close follows; finalization happens below.
			endMeta = ev.Metadata

		case stream.ErrorEvent:
			streamErr = ev.Err
		}
	}

	c.mu.Lock()
	c.messages[idx].Streaming = false
	final := c.messages[idx].clone()
	if streamErr == nil {
		c.finishTurnLocked(endMeta.TurnCount)
	}
	c.mu.Unlock()
	c.notify()
	c.record(ctx, sessionID, final)

	if streamErr != nil {
		c.appendFailure(ctx, streamErr)
		return true, streamErr
	}
	return true, nil
}

// resolveToolLocked marks the most recent pending call of the named tool
// with the result status. Results for unknown tools are dropped.
func (c *Conversation) resolveToolLocked(idx int, tool, status string) {
	if status != ToolCompleted && status != ToolFailed {
		status = ToolCompleted
	}
	calls := c.messages[idx].ToolCalls
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Name == tool && calls[i].Status == ToolPending {
			calls[i].Status = status
			return
		}
	}
	c.log.Debug().Str("tool", tool).Msg("tool result without matching call")
}

// appendFailure translates a failed exchange into transcript state.
// Cancellation adds nothing; session expiry detaches the session so the
// next send starts fresh.
func (c *Conversation) appendFailure(ctx context.Context, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &api.APIError{Kind: api.KindUnknown, Message: err.Error()}
	}

	if apiErr.Canceled() {
		c.log.Debug().Msg("turn cancelled")
		return
	}

	var msg Message
	if apiErr.Kind == api.KindSessionExpired {
		c.mu.Lock()
		c.sessionID = ""
		c.mu.Unlock()
		msg = newMessage(RoleError, "Your session has expired. Please send your message again.")
	} else {
		msg = newMessage(RoleError, apiErr.Message)
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	sessionID := c.sessionID
	c.mu.Unlock()
	c.notify()

	c.log.Error().
		Str("kind", string(apiErr.Kind)).
		Int("status", apiErr.StatusCode).
		Str("requestId", apiErr.RequestID).
		Msg("turn failed")
	c.record(ctx, sessionID, msg)
}

// record persists one finalized message, best effort.
func (c *Conversation) record(ctx context.Context, sessionID string, msg Message) {
	if c.rec == nil || sessionID == "" {
		return
	}
	if err := c.rec.RecordMessage(ctx, c.client.Tenant().Current(), sessionID, msg); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist message")
	}
}
