package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, stop := commandContext()
			defer stop()

			client := buildClient(cfg)
			resp, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend unreachable: %w", err)
			}

			fmt.Printf("Backend:  %s\n", cfg.API.BaseURL)
			fmt.Printf("Status:   %s\n", resp.Status)
			if resp.Service != "" {
				fmt.Printf("Service:  %s\n", resp.Service)
			}
			if resp.Version != "" {
				fmt.Printf("Version:  %s\n", resp.Version)
			}
			return nil
		},
	}
}
