package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/repository"
	"shiftdesk/internal/util"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/outbox"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.connect()
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Migrate(cmd.Context(), pool, a.log)
		},
	}
}

func newCreateAdminCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or reset its password",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			email = strings.TrimSpace(email)
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			if len(password) < util.MinPasswordLen {
				return util.ErrWeakPassword
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash, err := util.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			pool, err := a.connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			admin := &model.Admin{Email: email, PasswordHash: hash}
			if err := repository.NewAdminRepository(pool).Upsert(cmd.Context(), admin); err != nil {
				return err
			}
			a.log.Info("Admin saved", zap.Int("admin_id", admin.ID), zap.String("email", admin.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "admin %d (%s) saved\n", admin.ID, admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newReplayOutboxCmd(a *app) *cobra.Command {
	var (
		id     int64
		failed bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "replay-outbox",
		Short: "Reset failed outbox events so the dispatcher publishes them again",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if (id > 0) == failed {
				return errors.New("pass exactly one of --id or --failed")
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			replay := outbox.NewReplayService(outbox.NewRepository(pool), a.log)
			if id > 0 {
				if err := replay.ReplayEvent(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "event %d replayed\n", id)
				return nil
			}

			n, err := replay.ReplayFailedEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d failed events replayed\n", n)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "replay a single event")
	cmd.Flags().BoolVar(&failed, "failed", false, "replay every failed event")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum failed events to replay")
	return cmd
}
