package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/parleyhq/parley/internal/chat"
)

// transcriptPrinter renders agent output incrementally: streamed chunks
// appear as they arrive, tool activity as bracketed lines, errors on
// their own prefixed line. User messages are never echoed back.
type transcriptPrinter struct {
	mu  sync.Mutex
	out io.Writer

	lastID        string
	printedLen    int
	printedCalls  int
	resolvedCalls int
	lineOpen      bool
}

func newTranscriptPrinter(out io.Writer) *transcriptPrinter {
	return &transcriptPrinter{out: out}
}

// render prints whatever the last transcript entry has that was not
// printed yet. Safe to call on every mutation.
func (p *transcriptPrinter) render(msgs []chat.Message) {
	if len(msgs) == 0 {
		return
	}
	msg := msgs[len(msgs)-1]
	if msg.Role == chat.RoleUser {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.ID != p.lastID {
		p.closeLineLocked()
		p.lastID = msg.ID
		p.printedLen = 0
		p.printedCalls = 0
		p.resolvedCalls = 0

		switch msg.Role {
		case chat.RoleError:
			fmt.Fprint(p.out, "error> ")
		default:
			fmt.Fprint(p.out, "agent> ")
		}
		p.lineOpen = true
	}

	for ; p.printedCalls < len(msg.ToolCalls); p.printedCalls++ {
		p.closeLineLocked()
		fmt.Fprintf(p.out, "[%s: running]\n", msg.ToolCalls[p.printedCalls].Name)
	}
	if resolved := countResolved(msg.ToolCalls); resolved > p.resolvedCalls {
		p.closeLineLocked()
		for ; p.resolvedCalls < resolved; p.resolvedCalls++ {
			fmt.Fprintf(p.out, "[%s]\n", resolvedLabel(msg.ToolCalls, p.resolvedCalls))
		}
	}

	if len(msg.Content) > p.printedLen {
		if !p.lineOpen {
			fmt.Fprint(p.out, "agent> ")
			p.lineOpen = true
		}
		fmt.Fprint(p.out, msg.Content[p.printedLen:])
		p.printedLen = len(msg.Content)
	}

	if !msg.Streaming {
		p.closeLineLocked()
	}
}

func (p *transcriptPrinter) closeLineLocked() {
	if p.lineOpen {
		fmt.Fprintln(p.out)
		p.lineOpen = false
	}
}

func countResolved(calls []chat.ToolCallView) int {
	n := 0
	for _, tc := range calls {
		if tc.Status != chat.ToolPending {
			n++
		}
	}
	return n
}

func resolvedLabel(calls []chat.ToolCallView, skip int) string {
	for _, tc := range calls {
		if tc.Status == chat.ToolPending {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		return tc.Name + ": " + tc.Status
	}
	return ""
}
