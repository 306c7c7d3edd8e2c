// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package config loads ChargeShare configuration from a YAML file,
// environment secrets and command-line flags.
package config

import (
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/store"
)

// Config is the full service configuration.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http" json:"http" yaml:"http"`
	Metrics   MetricsConfig   `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Database  DatabaseConfig  `koanf:"database" json:"database" yaml:"database"`
	Auth      AuthConfig      `koanf:"auth" json:"auth" yaml:"auth"`
	Broadcast BroadcastConfig `koanf:"broadcast" json:"broadcast" yaml:"broadcast"`
	Log       LogConfig       `koanf:"log" json:"log" yaml:"log"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr" jsonschema:"description=API listen address (host:port)"`
}

// MetricsConfig configures the metrics and health listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr" jsonschema:"description=metrics/health listen address; empty disables"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string `koanf:"url" json:"url,omitempty" yaml:"url,omitempty" jsonschema:"description=PostgreSQL connection URL (or DATABASE_URL)"`
	MaxConns        int32  `koanf:"max_conns" json:"max_conns" yaml:"max_conns" jsonschema:"minimum=0"`
	ConnectAttempts uint64 `koanf:"connect_attempts" json:"connect_attempts" yaml:"connect_attempts" jsonschema:"minimum=1"`
	AutoMigrate     bool   `koanf:"auto_migrate" json:"auto_migrate" yaml:"auto_migrate"`
}

// AuthConfig configures tokens, cookies and the expiry sweeper.
type AuthConfig struct {
	TokenSecret   string        `koanf:"token_secret" json:"token_secret,omitempty" yaml:"token_secret,omitempty" jsonschema:"minLength=32"`
	CookieSecret  string        `koanf:"cookie_secret" json:"cookie_secret,omitempty" yaml:"cookie_secret,omitempty" jsonschema:"minLength=32"`
	CookieName    string        `koanf:"cookie_name" json:"cookie_name" yaml:"cookie_name" jsonschema:"minLength=1"`
	CookieSecure  bool          `koanf:"cookie_secure" json:"cookie_secure" yaml:"cookie_secure"`
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval" yaml:"sweep_interval"`
}

// BroadcastConfig configures the websocket endpoint.
type BroadcastConfig struct {
	AllowedOrigins []string      `koanf:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins" jsonschema:"description=glob patterns for the Origin header"`
	SendBuffer     int           `koanf:"send_buffer" json:"send_buffer" yaml:"send_buffer" jsonschema:"minimum=1"`
	PingPeriod     time.Duration `koanf:"ping_period" json:"ping_period" yaml:"ping_period"`
	PongWait       time.Duration `koanf:"pong_wait" json:"pong_wait" yaml:"pong_wait"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `koanf:"format" json:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
}

// Default returns the configuration used for keys missing from every source.
func Default() Config {
	conn := broadcast.DefaultConnConfig()
	return Config{
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8080"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Database: DatabaseConfig{
			ConnectAttempts: store.DefaultConnectOptions.Attempts,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			CookieName:    auth.DefaultCookieName,
			CookieSecure:  true,
			SweepInterval: auth.DefaultSweepInterval,
		},
		Broadcast: BroadcastConfig{
			AllowedOrigins: []string{},
			SendBuffer:     conn.SendBuffer,
			PingPeriod:     conn.PingPeriod,
			PongWait:       conn.PongWait,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// ConnConfig returns websocket settings with package defaults for the rest.
func (c BroadcastConfig) ConnConfig() broadcast.ConnConfig {
	cfg := broadcast.DefaultConnConfig()
	if c.SendBuffer > 0 {
		cfg.SendBuffer = c.SendBuffer
	}
	if c.PingPeriod > 0 {
		cfg.PingPeriod = c.PingPeriod
	}
	if c.PongWait > 0 {
		cfg.PongWait = c.PongWait
	}
	return cfg
}

// ConnectOptions returns pool options for this database config.
func (c DatabaseConfig) ConnectOptions() store.ConnectOptions {
	opts := store.DefaultConnectOptions
	opts.MaxConns = c.MaxConns
	if c.ConnectAttempts > 0 {
		opts.Attempts = c.ConnectAttempts
	}
	return opts
}

// Validate checks the database settings.
func (c DatabaseConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database url is required (set database.url or DATABASE_URL)")
	}
	return nil
}

// Validate checks everything the server needs to start.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http address is required")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if len(c.Auth.TokenSecret) < auth.MinTokenSecretBytes {
		return oops.Code("CONFIG_INVALID").With("key", "auth.token_secret").
			Errorf("token secret must be at least %d bytes (set auth.token_secret or %s)", auth.MinTokenSecretBytes, EnvTokenSecret)
	}
	if len(c.Auth.CookieSecret) < auth.MinCookieSecretBytes {
		return oops.Code("CONFIG_INVALID").With("key", "auth.cookie_secret").
			Errorf("cookie secret must be at least %d bytes (set auth.cookie_secret or %s)", auth.MinCookieSecretBytes, EnvCookieSecret)
	}
	if c.Auth.TokenSecret == c.Auth.CookieSecret {
		return oops.Code("CONFIG_INVALID").With("key", "auth.cookie_secret").
			Errorf("token and cookie secrets must differ")
	}
	if c.Broadcast.PingPeriod > 0 && c.Broadcast.PongWait > 0 && c.Broadcast.PingPeriod >= c.Broadcast.PongWait {
		return oops.Code("CONFIG_INVALID").With("key", "broadcast.ping_period").
			Errorf("ping period must be shorter than pong wait")
	}
	return nil
}
