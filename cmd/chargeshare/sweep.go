// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/chargeshare/chargeshare/internal/auth"
	authpg "github.com/chargeshare/chargeshare/internal/auth/postgres"
)

func newSweepCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions once and exit",
		Long: `Delete every session whose expiry has passed. The server sweeps
periodically on its own; this is for cron-style deployments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Database.Validate(); err != nil {
				return err
			}

			pool, err := opts.deps.PoolFactory(cmd.Context(), cfg.Database.URL, cfg.Database.ConnectOptions())
			if err != nil {
				return err
			}
			defer pool.Close()

			sweeper := auth.NewSweeper(repoSweeper{authpg.NewSessionRepository(pool)}, cfg.Auth.SweepInterval,
				auth.WithSweeperClock(opts.deps.Now))
			n, err := sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired session(s)\n", n)
			return nil
		},
	}
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	return cmd
}

// repoSweeper sweeps through the repository directly so the command needs no
// token secret.
type repoSweeper struct {
	repo *authpg.SessionRepository
}

func (s repoSweeper) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now) //nolint:wrapcheck // repository errors are coded
}
