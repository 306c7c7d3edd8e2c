// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/chargeshare/chargeshare/internal/auth"
	authpg "github.com/chargeshare/chargeshare/internal/auth/postgres"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/charger"
	"github.com/chargeshare/chargeshare/internal/config"
	"github.com/chargeshare/chargeshare/internal/logging"
	"github.com/chargeshare/chargeshare/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API, websocket and metrics servers",
		Long: `Start the HTTP API with authentication and charger endpoints, the
resource-updates websocket, the expired session sweeper and the
metrics/health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, opts.deps)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe wires every component from cfg and blocks until ctx is cancelled
// or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *Deps) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault("chargeshare", version, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.Info("starting chargeshare",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(deps, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	connectOpts := cfg.Database.ConnectOptions()
	connectOpts.Logger = logger
	pool, err := deps.PoolFactory(ctx, cfg.Database.URL, connectOpts)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Metrics are only collected when the observability server is enabled.
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, pool.Ping, logger)
	}

	storeOpts := []auth.StoreOption{auth.WithStoreLogger(logger)}
	hubOpts := []broadcast.HubOption{broadcast.WithHubLogger(logger)}
	routerDeps := web.Deps{Logger: logger}
	if obsServer != nil {
		m := obsServer.Metrics()
		storeOpts = append(storeOpts, auth.WithStoreMetrics(m))
		hubOpts = append(hubOpts, broadcast.WithHubMetrics(m))
		routerDeps.RequestMetrics = m
		routerDeps.RejectionMetrics = m
	}

	identities := authpg.NewIdentityRepository(pool)
	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.TokenSecret))
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionStore(authpg.NewSessionRepository(pool), identities, codec, storeOpts...)
	if err != nil {
		return err
	}
	service, err := auth.NewService(identities, sessions, auth.NewArgon2idHasher(), auth.WithServiceLogger(logger))
	if err != nil {
		return err
	}
	cookies, err := auth.NewCookieSealer([]byte(cfg.Auth.CookieSecret), cfg.Auth.CookieName, cfg.Auth.CookieSecure)
	if err != nil {
		return err
	}

	hub := broadcast.NewHub(hubOpts...)
	wsHandler, err := broadcast.NewHandler(hub, cfg.Broadcast.AllowedOrigins,
		broadcast.WithHandlerLogger(logger),
		broadcast.WithConnConfig(cfg.Broadcast.ConnConfig()),
	)
	if err != nil {
		return err
	}

	routerDeps.Service = service
	routerDeps.Sessions = sessions
	routerDeps.Cookies = cookies
	routerDeps.Chargers = charger.NewPostgresRepository(pool)
	routerDeps.Publisher = hub
	routerDeps.Broadcast = wsHandler
	router, err := web.NewRouter(routerDeps)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	sweeper := auth.NewSweeper(sessions, cfg.Auth.SweepInterval, auth.WithSweeperLogger(logger))
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	// Cancel before waiting so the sweeper exits on every return path.
	defer wg.Wait()
	defer cancel()

	webServer := deps.WebServerFactory(cfg.HTTP.Addr, router, logger)
	webErrCh, err := webServer.Start()
	if err != nil {
		return oops.With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrCh, "api", logger)

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := webServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop api server during cleanup", "error", stopErr)
			}
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
	}

	cmd.Println("ChargeShare started on " + webServer.Addr())
	if deps.OnStarted != nil {
		deps.OnStarted(webServer.Addr())
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := wsHandler.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error closing websocket connections", "error", err)
	}
	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels ctx when a server reports a serve error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
