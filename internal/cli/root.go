// Package cli wires the terminal commands: the chat REPL, session
// management, and backend health checks.
package cli

import (
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	tenantID string
	noStream bool

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley is a terminal chat client for the agent backend",
		Long:  "Parley is a terminal client for multi-tenant agent backends: streamed chat, session management, and a local transcript cache.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.parley/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant scope for all requests (default from config)")
	cmd.PersistentFlags().BoolVar(&noStream, "no-stream", false, "disable streamed responses")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig merges file, env, and flag-level overrides.
func loadConfig() config.Config {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		log.Warn().Err(err).Str("path", paths.Config).Msg("config unreadable, using defaults")
		cfg = config.Defaults()
	}
	if tenantID != "" {
		cfg.Tenant = tenantID
	}
	if noStream {
		cfg.Streaming.Enabled = false
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg
}
