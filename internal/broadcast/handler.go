// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"
)

// Handler upgrades HTTP requests to broadcast websocket connections.
type Handler struct {
	hub      *Hub
	cfg      ConnConfig
	logger   *slog.Logger
	origins  []glob.Glob
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithConnConfig overrides websocket timings.
func WithConnConfig(cfg ConnConfig) HandlerOption {
	return func(h *Handler) { h.cfg = cfg }
}

// NewHandler creates a Handler. allowedOrigins are glob patterns matched
// against the Origin header, e.g. "https://*.chargeshare.app". With no
// patterns only same-origin browsers may connect.
func NewHandler(hub *Hub, allowedOrigins []string, opts ...HandlerOption) (*Handler, error) {
	if hub == nil {
		return nil, oops.Code("BROADCAST_HANDLER_INVALID").Errorf("hub is required")
	}
	h := &Handler{
		hub:    hub,
		cfg:    DefaultConnConfig(),
		logger: slog.Default(),
		conns:  make(map[*Conn]struct{}),
	}
	for _, pattern := range allowedOrigins {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, oops.Code("BROADCAST_ORIGIN_INVALID").With("pattern", pattern).Wrap(err)
		}
		h.origins = append(h.origins, g)
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients do not send Origin.
		return true
	}
	origin = strings.ToLower(origin)
	if len(h.origins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	for _, g := range h.origins {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// ServeHTTP implements http.Handler. It blocks for the life of the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.DebugContext(r.Context(), "websocket upgrade failed",
			"origin", r.Header.Get("Origin"), "error", err)
		return
	}

	conn := NewConn(ws, h.hub, h.cfg, h.logger)
	if !h.track(conn) {
		conn.Close()
		return
	}
	defer h.untrack(conn)

	h.logger.DebugContext(r.Context(), "broadcast client connected", "conn_id", conn.ID())
	conn.Serve(r.Context())
	h.logger.DebugContext(r.Context(), "broadcast client disconnected", "conn_id", conn.ID())
}

func (h *Handler) track(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return false
	}
	h.conns[c] = struct{}{}
	return true
}

func (h *Handler) untrack(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Connections returns the number of open websocket connections.
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown closes every open connection and waits for their handlers to
// return or ctx to end. New upgrades are refused afterwards.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.shutdown = true
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return oops.Code("BROADCAST_SHUTDOWN_TIMEOUT").With("open", h.Connections()).Wrap(ctx.Err())
	}
}
