package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shiftdesk/pkg/config"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	configDir string
	env       string
	cfg       *config.Config
	log       *zap.Logger
}

func (a *app) connect() (*pgxpool.Pool, error) {
	return db.NewConnection(a.cfg.DB, a.log)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shiftctl",
		Short:         "Operations tool for the shiftdesk backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configDir, a.env)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.NewLogger(a.env)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", config.GetEnv("CONFIG_DIR", "config"), "directory holding base.yaml")
	root.PersistentFlags().StringVar(&a.env, "env", config.GetConfigEnv(), "config environment (local, production, ...)")

	root.AddCommand(
		newMigrateCmd(a),
		newCreateAdminCmd(a),
		newReplayOutboxCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
