// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/chargeshare/chargeshare/internal/httpserver"
	"github.com/chargeshare/chargeshare/internal/observability"
	"github.com/chargeshare/chargeshare/internal/store"
)

const apiIdleTimeout = 120 * time.Second

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, dsn string, opts store.ConnectOptions) (Pool, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(dsn string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessCheck, logger *slog.Logger) ObservabilityServer

	// WebServerFactory creates the API server.
	// Default: an httpserver.Server named "api"
	WebServerFactory func(addr string, handler http.Handler, logger *slog.Logger) WebServer

	// Getenv reads secrets and the DSN.
	// Default: os.Getenv
	Getenv func(string) string

	// Now is the clock used by one-shot commands.
	// Default: time.Now
	Now func() time.Time

	// OnStarted is called with the API address once serve is accepting requests.
	OnStarted func(apiAddr string)
}

func (d *Deps) withDefaults() *Deps {
	if d == nil {
		d = &Deps{}
	}
	if d.PoolFactory == nil {
		d.PoolFactory = func(ctx context.Context, dsn string, opts store.ConnectOptions) (Pool, error) {
			pool, err := store.Connect(ctx, dsn, opts)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(dsn string) (Migrator, error) {
			m, err := store.NewMigrator(dsn)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessCheck, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if d.WebServerFactory == nil {
		d.WebServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) WebServer {
			return httpserver.New("api", addr, handler,
				httpserver.WithLogger(logger),
				httpserver.WithIdleTimeout(apiIdleTimeout))
		}
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Pool wraps the methods used from pgxpool.Pool.
type Pool interface {
	store.Querier
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// WebServer wraps the methods used from httpserver.Server.
type WebServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
