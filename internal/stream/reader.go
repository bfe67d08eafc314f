package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/logging"
)

// errDone signals the server's explicit end-of-stream sentinel.
var errDone = errors.New("stream done")

// wireEvent is the JSON payload of one SSE data line. The backend sends
// either bare data lines with a "type" field or event:/data: pairs; both
// decode into this shape.
type wireEvent struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id"`
	Content   string                `json:"content"`
	Chunk     string                `json:"chunk"` // older backends put chunk text here
	Tool      string                `json:"tool"`
	Status    string                `json:"status"`
	Error     string                `json:"error"`
	Detail    string                `json:"detail"`
	Message   string                `json:"message"`
	Metadata  *api.ResponseMetadata `json:"metadata"`
}

// text returns the chunk payload, whichever field carries it.
func (w wireEvent) text() string {
	if w.Content != "" {
		return w.Content
	}
	return w.Chunk
}

// errorText returns the error description, whichever field carries it.
func (w wireEvent) errorText() string {
	switch {
	case w.Error != "":
		return w.Error
	case w.Detail != "":
		return w.Detail
	default:
		return w.Message
	}
}

// frameReader decodes SSE frames line by line. A line is only processed
// once its trailing newline has arrived, so payloads split across reads
// reassemble transparently.
type frameReader struct {
	r   *bufio.Reader
	log *logging.Logger

	// eventType is the value of the most recent event: line, applied to
	// the next data: line and cleared at each frame boundary.
	eventType string
}

func newFrameReader(r io.Reader, log *logging.Logger) *frameReader {
	return &frameReader{r: bufio.NewReader(r), log: log}
}

// Next returns the next decoded event. It returns errDone on the [DONE]
// sentinel and io.EOF when the connection closes. Malformed data lines
// are skipped, never fatal.
func (f *frameReader) Next() (Event, error) {
	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			// A partial line with no newline is dropped, not parsed.
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			f.eventType = ""
			continue

		case strings.HasPrefix(line, "event:"):
			f.eventType = strings.TrimSpace(line[len("event:"):])
			continue

		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimSpace(line[len("data:"):])
			if payload == "[DONE]" {
				return nil, errDone
			}
			ev, ok := f.decode(payload)
			if !ok {
				continue
			}
			return ev, nil

		default:
			// SSE comments and unknown fields are ignored.
			continue
		}
	}
}

func (f *frameReader) decode(payload string) (Event, bool) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		f.log.Debug().Err(err).Str("payload", payload).Msg("skipping malformed stream line")
		return nil, false
	}

	kind := wire.Type
	if kind == "" {
		kind = f.eventType
	}

	switch kind {
	case "start":
		return Start{SessionID: wire.SessionID}, true
	case "chunk", "message":
		return Chunk{Content: wire.text()}, true
	case "tool_call":
		return ToolCall{Tool: wire.Tool, Status: wire.Status}, true
	case "tool_result":
		return ToolResult{Tool: wire.Tool, Status: wire.Status}, true
	case "end", "done":
		end := End{SessionID: wire.SessionID}
		if wire.Metadata != nil {
			end.Metadata = *wire.Metadata
		}
		return end, true
	case "error":
		return ErrorEvent{Err: &api.APIError{
			Kind:    api.KindServerError,
			Message: wire.errorText(),
		}}, true
	default:
		f.log.Debug().Str("type", kind).Msg("skipping unknown stream event type")
		return nil, false
	}
}
