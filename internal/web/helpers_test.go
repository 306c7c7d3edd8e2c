// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/auth/authtest"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/charger/chargertest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, events ...broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.topics = append(p.topics, topic)
		p.events = append(p.events, e)
	}
}

func (p *recordingPublisher) Events() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broadcast.Event(nil), p.events...)
}

type countingRejections struct {
	mu     sync.Mutex
	causes map[string]int
}

func (c *countingRejections) AuthRejected(cause string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.causes == nil {
		c.causes = make(map[string]int)
	}
	c.causes[cause]++
}

func (c *countingRejections) Count(cause string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.causes[cause]
}

type apiFixture struct {
	*authtest.Harness
	Cookies    *auth.CookieSealer
	Chargers   *chargertest.MemoryRepository
	Publisher  *recordingPublisher
	Rejections *countingRejections
	Router     http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	h := authtest.NewHarness(t)
	cookies, err := auth.NewCookieSealer(authtest.CookieSecret, auth.DefaultCookieName, true)
	require.NoError(t, err)

	f := &apiFixture{
		Harness:    h,
		Cookies:    cookies,
		Chargers:   chargertest.NewMemoryRepository(),
		Publisher:  &recordingPublisher{},
		Rejections: &countingRejections{},
	}
	f.Router, err = NewRouter(Deps{
		Service:          h.Service,
		Sessions:         h.Store,
		Cookies:          cookies,
		Chargers:         f.Chargers,
		Publisher:        f.Publisher,
		RejectionMetrics: f.Rejections,
		Now:              h.Clock.Now,
	})
	require.NoError(t, err)
	return f
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *apiFixture) doRaw(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

func newRecorder() *httptest.ResponseRecorder { return httptest.NewRecorder() }

func newRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, path, nil)
	require.NoError(t, err)
	return req
}
