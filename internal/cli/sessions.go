package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List and manage backend sessions",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsHistoryCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newSessionsListCmd() *cobra.Command {
	var (
		limit  int
		offset int
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions for the current tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, stop := commandContext()
			defer stop()

			if local {
				db, transcripts := openStore(cfg)
				if transcripts == nil {
					return fmt.Errorf("transcript cache unavailable")
				}
				defer db.Close()

				records, err := transcripts.Sessions(ctx, cfg.Tenant)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No cached sessions.")
					return nil
				}
				for _, rec := range records {
					fmt.Printf("%s  messages=%d  last=%s\n",
						rec.SessionID, rec.MessageCount, rec.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			}

			client := buildClient(cfg)
			resp, err := client.ListSessions(ctx, limit, offset)
			if err != nil {
				return err
			}
			if len(resp.Sessions) == 0 {
				fmt.Println("No sessions.")
				return nil
			}
			for _, s := range resp.Sessions {
				fmt.Printf("%s  messages=%d  last=%s\n", s.SessionID, s.MessageCount, s.LastActivity)
			}
			fmt.Printf("\n%d total\n", resp.TotalCount)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	cmd.Flags().BoolVar(&local, "local", false, "list the local transcript cache instead of the backend")
	return cmd
}

func newSessionsHistoryCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print a session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, stop := commandContext()
			defer stop()

			if local {
				db, transcripts := openStore(cfg)
				if transcripts == nil {
					return fmt.Errorf("transcript cache unavailable")
				}
				defer db.Close()

				msgs, err := transcripts.Messages(ctx, args[0])
				if err != nil {
					return err
				}
				for _, m := range msgs {
					fmt.Printf("[%s] %s\n", m.Role, m.Content)
				}
				return nil
			}

			client := buildClient(cfg)
			resp, err := client.SessionHistory(ctx, args[0])
			if err != nil {
				return err
			}
			for _, m := range resp.Messages {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
				for _, tc := range m.ToolCalls {
					fmt.Printf("  [%s: %s]\n", tc.Tool, tc.Status)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "read the local transcript cache instead of the backend")
	return cmd
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, stop := commandContext()
			defer stop()

			client := buildClient(cfg)
			resp, err := client.DeleteSession(ctx, args[0])
			if err != nil {
				return err
			}

			// Keep the cache in step with the backend, best effort.
			if db, transcripts := openStore(cfg); transcripts != nil {
				if err := transcripts.DeleteSession(ctx, args[0]); err != nil {
					log.Warn().Err(err).Msg("failed to prune cached transcript")
				}
				db.Close()
			}

			fmt.Printf("Deleted session %s.\n", resp.SessionID)
			return nil
		},
	}
}
