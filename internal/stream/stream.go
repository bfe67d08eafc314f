package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/logging"
)

// ErrUnavailable reports that the backend has no streaming endpoint.
// Callers fall back to the non-streaming path when they see it.
var ErrUnavailable = errors.New("streaming endpoint unavailable")

// Opener establishes streamed message exchanges.
type Opener struct {
	BaseURL    string
	HTTPClient *http.Client // no overall timeout; streams outlive any fixed budget
	Tenant     *api.TenantScope
	Logger     *logging.Logger
}

// NewOpener creates an Opener sharing the given client's base URL,
// tenant scope, and transport. The per-request timeout is dropped so a
// long-lived stream is never cut off mid-response.
func NewOpener(client *api.Client, log *logging.Logger) *Opener {
	if log == nil {
		log = logging.New(io.Discard, "silent")
	}
	return &Opener{
		BaseURL:    client.BaseURL(),
		HTTPClient: &http.Client{Transport: client.HTTPClient().Transport},
		Tenant:     client.Tenant(),
		Logger:     log.Sub("stream"),
	}
}

// Stream is one open streamed response. Events arrive on Events() in
// server order, ending with exactly one terminal event (End or
// ErrorEvent) before the channel closes. Cancel stops delivery early;
// the channel still closes cleanly afterwards.
type Stream struct {
	events chan Event
	cancel context.CancelFunc
	body   io.ReadCloser
	log    *logging.Logger
}

// Open starts a streamed exchange for the given message. It returns
// ErrUnavailable when the endpoint does not exist, and a classified
// *api.APIError for any other failure to establish the stream.
func (o *Opener) Open(ctx context.Context, req api.MessageRequest) (*Stream, error) {
	req.Stream = true
	if req.TenantID == "" && o.Tenant != nil {
		req.TenantID = o.Tenant.Current()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &api.APIError{Kind: api.KindUnknown, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.BaseURL+api.EndpointMessageStream, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, &api.APIError{Kind: api.KindUnknown, Message: fmt.Sprintf("build request: %v", err)}
	}

	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	httpReq.Header.Set("X-Tenant-ID", req.TenantID)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, api.Classify(err, nil, nil)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		cancel()
		return nil, ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		cancel()
		return nil, api.Classify(nil, resp, body)
	}

	s := &Stream{
		events: make(chan Event, 16),
		cancel: cancel,
		body:   resp.Body,
		log:    o.Logger,
	}
	go s.pump(ctx)
	return s, nil
}

// Events returns the stream's event channel. It is closed after the
// terminal event is delivered.
func (s *Stream) Events() <-chan Event { return s.events }

// Cancel aborts the stream. The event channel still terminates with an
// End event and closes; cancellation is a clean close, never an error.
func (s *Stream) Cancel() { s.cancel() }

// pump reads frames off the wire and delivers them until a terminal
// event, the server's sentinel, connection close, or cancellation.
func (s *Stream) pump(ctx context.Context) {
	defer close(s.events)
	defer s.body.Close()
	defer s.cancel()

	fr := newFrameReader(s.body, s.log)
	for {
		ev, err := fr.Next()
		if err != nil {
			switch {
			case errors.Is(err, errDone), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				// Server finished without an explicit end event.
				s.deliver(ctx, End{})
			case ctx.Err() != nil:
				// Caller-initiated cancellation, a clean close.
				s.deliver(ctx, End{})
			default:
				s.log.Warn().Err(err).Msg("stream read failed")
				s.deliver(ctx, ErrorEvent{Err: api.Classify(err, nil, nil)})
			}
			return
		}

		switch ev.(type) {
		case End, ErrorEvent:
			s.deliver(ctx, ev)
			return
		default:
			if !s.deliver(ctx, ev) {
				s.deliver(ctx, End{})
				return
			}
		}
	}
}

// deliver sends one event, giving up if the consumer has gone away after
// cancellation. Terminal events are still attempted without blocking so
// a draining consumer sees them.
func (s *Stream) deliver(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		select {
		case s.events <- ev:
		default:
		}
		return false
	}
}
