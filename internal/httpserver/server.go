// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package httpserver runs an http.Handler on a TCP listener with a
// start/stop lifecycle shared by the API and observability endpoints.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/samber/oops"
)

const readHeaderTimeout = 10 * time.Second

// Server serves one handler. The zero value is not usable; call New.
type Server struct {
	name        string
	addr        string
	handler     http.Handler
	logger      *slog.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIdleTimeout bounds how long keep-alive connections stay open between requests.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// New creates a Server named name (used in logs and error context) for addr.
func New(name, addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{name: name, addr: addr, handler: handler, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("server", name)
	return s
}

// Start binds the listener and serves in the background. The returned
// channel receives a serve failure, if any, and is closed once serving ends.
// A Server that failed to start, or was stopped, may be started again.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, oops.Code("HTTP_SERVER_RUNNING").
			With("server", s.name, "addr", s.listener.Addr().String()).
			Errorf("%s server already running", s.name)
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code("HTTP_LISTEN_FAILED").With("server", s.name, "addr", s.addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       s.idleTimeout,
	}
	s.listener, s.srv = ln, srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx ends. Stopping a server that is
// not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").With("server", s.name).Wrap(err)
	}
	s.srv, s.listener = nil, nil
	s.logger.Info("stopped")
	return nil
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
