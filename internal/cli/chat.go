package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/chat"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/stream"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var resumeSession string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat with the agent backend.

A session is created on your first message. Ctrl-C interrupts a response
in progress; Ctrl-D (or /quit) exits.

Commands inside the chat:
  /new            start a fresh session
  /tenant <id>    switch tenant (next session uses it)
  /quit           exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(os.Stderr, "config: %s\n", issue)
				}
				return fmt.Errorf("invalid configuration")
			}

			client := buildClient(cfg)
			db, transcripts := openStore(cfg)
			if db != nil {
				defer db.Close()
			}

			printer := newTranscriptPrinter(os.Stdout)
			conv := chat.NewConversation(client, stream.NewOpener(client, log), chat.Options{
				Streaming: cfg.Streaming.Enabled,
				Recorder:  recorderOrNil(transcripts),
				Logger:    log,
			})
			if resumeSession != "" {
				resume(conv, client, resumeSession)
			}
			return runChatLoop(conv, client, cfg, printer)
		},
	}

	cmd.Flags().StringVar(&resumeSession, "session", "", "resume an existing session by id")
	return cmd
}

// resume attaches to an existing session, seeding the transcript from
// the backend's history when it is reachable.
func resume(conv *chat.Conversation, client *api.Client, sessionID string) {
	ctx, stop := commandContext()
	defer stop()

	var history []chat.Message
	if resp, err := client.SessionHistory(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("could not fetch history, resuming without it")
	} else {
		for _, m := range resp.Messages {
			msg := chat.Message{
				ID:      uuid.New().String(),
				Role:    chat.Role(m.Role),
				Content: m.Content,
			}
			if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
				msg.Timestamp = ts
			}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, chat.ToolCallView{Name: tc.Tool, Status: tc.Status})
			}
			history = append(history, msg)
		}
	}
	conv.Attach(sessionID, history)
	fmt.Printf("Resumed session %s with %d messages.\n", sessionID, len(history))
}

func recorderOrNil(t *store.TranscriptStore) chat.Recorder {
	if t == nil {
		return nil
	}
	return t
}

func runChatLoop(conv *chat.Conversation, client *api.Client, cfg config.Config, printer *transcriptPrinter) error {
	conv.SetOnUpdate(func() { printer.render(conv.Messages()) })

	fmt.Printf("parley: tenant %q, backend %s\n", client.Tenant().Current(), cfg.API.BaseURL)
	fmt.Println("Type a message, /new for a fresh session, Ctrl-D to exit.")

	// Ctrl-C interrupts the response in progress, not the REPL.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			conv.CancelStreaming()
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(conv, client, line); quit {
				return nil
			}
			continue
		}

		if err := conv.Send(context.Background(), line); err != nil {
			// The failure is already in the transcript and printed.
			log.Debug().Err(err).Msg("turn ended with error")
		}
		printer.render(conv.Messages())
	}
}

// runChatCommand handles slash commands. It reports whether to exit.
func runChatCommand(conv *chat.Conversation, client *api.Client, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		conv.Reset()
		fmt.Println("Started a new conversation.")
	case "/tenant":
		if len(fields) != 2 {
			fmt.Println("Usage: /tenant <id>")
			return false
		}
		client.Tenant().Set(fields[1])
		conv.Reset()
		fmt.Printf("Switched to tenant %q with a fresh conversation.\n", fields[1])
	default:
		fmt.Printf("Unknown command %s (try /new, /tenant, /quit).\n", fields[0])
	}
	return false
}
