// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package main

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/store"
)

const (
	testDSN          = "postgres://chargeshare@localhost/chargeshare"
	testTokenSecret  = "token-secret-token-secret-token-secret"
	testCookieSecret = "cookie-secret-cookie-secret-cookie-secret"
)

type fakeMigrator struct {
	mu      sync.Mutex
	dsn     string
	ups     int
	steps   []int
	forced  []int
	version uint
	dirty   bool
	pending []store.Migration
	closed  bool
	upErr   error
}

func (m *fakeMigrator) Up() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ups++
	return m.upErr
}

func (m *fakeMigrator) Steps(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, n)
	return nil
}

func (m *fakeMigrator) Version() (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version, m.dirty, nil
}

func (m *fakeMigrator) Force(v int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = append(m.forced, v)
	m.version = uint(v) //nolint:gosec // test input is small
	m.dirty = false
	return nil
}

func (m *fakeMigrator) Status() (store.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return store.Status{Version: m.version, Dirty: m.dirty, Pending: m.pending}, nil
}

func (m *fakeMigrator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// testDeps returns deps backed by fakes. XDG_CONFIG_HOME points at an empty
// temp dir so no real config file is read.
func testDeps(t *testing.T, env map[string]string) (*Deps, *fakeMigrator, pgxmock.PgxPoolIface) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	migrator := &fakeMigrator{version: 3}
	deps := &Deps{
		PoolFactory: func(context.Context, string, store.ConnectOptions) (Pool, error) {
			return mock, nil
		},
		MigratorFactory: func(dsn string) (Migrator, error) {
			migrator.dsn = dsn
			return migrator, nil
		},
		Getenv: func(key string) string { return env[key] },
	}
	return deps, migrator, mock
}

func execute(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWithDeps(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
