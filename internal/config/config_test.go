// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/pkg/errutil"
)

const (
	tokenSecret  = "token-secret-token-secret-token-secret"
	cookieSecret = "cookie-secret-cookie-secret-cookie-secret"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func parsedFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{
		Path:   filepath.Join(t.TempDir(), "missing.yaml"),
		Flags:  parsedFlags(t),
		Getenv: envFrom(nil),
	})
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.HTTP, cfg.HTTP)
	assert.Equal(t, want.Auth, cfg.Auth)
	assert.Equal(t, want.Log, cfg.Log)
	assert.Equal(t, want.Database.ConnectAttempts, cfg.Database.ConnectAttempts)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(Options{
		Path:     filepath.Join(t.TempDir(), "missing.yaml"),
		Explicit: true,
		Getenv:   envFrom(nil),
	})
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: "0.0.0.0:8443"
database:
  url: postgres://file/db
  max_conns: 8
auth:
  cookie_secure: false
  sweep_interval: 5m
broadcast:
  allowed_origins:
    - "https://*.chargeshare.app"
  ping_period: 20s
  pong_wait: 30s
log:
  format: text
`)
	cfg, err := Load(Options{Path: path, Flags: parsedFlags(t), Getenv: envFrom(nil)})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8443", cfg.HTTP.Addr, "unchanged flag defaults do not override the file")
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SweepInterval)
	assert.Equal(t, []string{"https://*.chargeshare.app"}, cfg.Broadcast.AllowedOrigins)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "keys absent from the file keep defaults")

	conn := cfg.Broadcast.ConnConfig()
	assert.Equal(t, 20*time.Second, conn.PingPeriod)
	assert.Equal(t, 30*time.Second, conn.PongWait)
	assert.Equal(t, int32(8), cfg.Database.ConnectOptions().MaxConns)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/db
auth:
  token_secret: file-secret-file-secret-file-secret-file
`)
	env := envFrom(map[string]string{
		EnvDatabaseURL:  "postgres://env/db",
		EnvTokenSecret:  tokenSecret,
		EnvCookieSecret: cookieSecret,
	})

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := Load(Options{Path: path, Flags: parsedFlags(t), Getenv: env})
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", cfg.Database.URL)
		assert.Equal(t, tokenSecret, cfg.Auth.TokenSecret)
		assert.Equal(t, cookieSecret, cfg.Auth.CookieSecret)
	})

	t.Run("changed flag overrides env", func(t *testing.T) {
		fs := parsedFlags(t, "--database-url=postgres://flag/db", "--log-level=debug", "--sweep-interval=30s")
		cfg, err := Load(Options{Path: path, Flags: fs, Getenv: env})
		require.NoError(t, err)
		assert.Equal(t, "postgres://flag/db", cfg.Database.URL)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 30*time.Second, cfg.Auth.SweepInterval)
	})
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown key", body: "http:\n  port: 8080\n"},
		{name: "unknown section", body: "smtp:\n  host: x\n"},
		{name: "bad enum", body: "log:\n  format: xml\n"},
		{name: "bad duration", body: "auth:\n  sweep_interval: ten minutes\n"},
		{name: "wrong type", body: "database:\n  max_conns: lots\n"},
		{name: "short secret", body: "auth:\n  token_secret: short\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := Load(Options{Path: path, Getenv: envFrom(nil)})
			errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")
			errutil.AssertErrorContext(t, err, "path", path)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(Options{Path: writeConfig(t, "http: [unterminated"), Getenv: envFrom(nil)})
	errutil.AssertErrorCode(t, err, "CONFIG_YAML_INVALID")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(Options{Path: writeConfig(t, ""), Getenv: envFrom(nil)})
	require.NoError(t, err)
	assert.Equal(t, Default().HTTP.Addr, cfg.HTTP.Addr)
}

func validConfig() Config {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/chargeshare"
	cfg.Auth.TokenSecret = tokenSecret
	cfg.Auth.CookieSecret = cookieSecret
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing http addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantKey: "http.addr"},
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "  " }, wantKey: "database.url"},
		{name: "short token secret", mutate: func(c *Config) { c.Auth.TokenSecret = "short" }, wantKey: "auth.token_secret"},
		{name: "short cookie secret", mutate: func(c *Config) { c.Auth.CookieSecret = "short" }, wantKey: "auth.cookie_secret"},
		{name: "shared secret", mutate: func(c *Config) { c.Auth.CookieSecret = c.Auth.TokenSecret }, wantKey: "auth.cookie_secret"},
		{name: "ping after pong", mutate: func(c *Config) {
			c.Broadcast.PingPeriod = time.Minute
			c.Broadcast.PongWait = 30 * time.Second
		}, wantKey: "broadcast.ping_period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.wantKey)
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, SchemaID)
	assert.Contains(t, s, `"sweep_interval"`)
	assert.Contains(t, s, `"allowed_origins"`)
	assert.NotContains(t, s, `"required"`)
}

func TestMarshal_WritesLoadableConfig(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Addr = "0.0.0.0:9999"

	data, err := Marshal(&cfg)
	require.NoError(t, err)
	require.NoError(t, ValidateYAML(data))
	assert.True(t, strings.Contains(string(data), "sweep_interval: 10m0s"))

	loaded, err := Load(Options{Path: writeConfig(t, string(data)), Getenv: envFrom(nil)})
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}
