// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment variables read for secrets and the DSN. They override the file
// and are overridden by explicitly set flags.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvTokenSecret  = "CHARGESHARE_TOKEN_SECRET"
	EnvCookieSecret = "CHARGESHARE_COOKIE_SECRET"
)

var envKeys = map[string]string{
	EnvDatabaseURL:  "database.url",
	EnvTokenSecret:  "auth.token_secret",
	EnvCookieSecret: "auth.cookie_secret",
}

// flagKeys maps flag names to config keys. Secrets have no flags.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"database-url":    "database.url",
	"auto-migrate":    "database.auto_migrate",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"allowed-origins": "broadcast.allowed_origins",
	"sweep-interval":  "auth.sweep_interval",
}

// RegisterFlags adds the overridable settings to fs with defaults from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $"+EnvDatabaseURL+")")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.StringSlice("allowed-origins", d.Broadcast.AllowedOrigins, "websocket Origin glob patterns")
	fs.Duration("sweep-interval", d.Auth.SweepInterval, "expired session sweep interval")
}

// Options control Load.
type Options struct {
	// Path is the config file. Missing is an error only when Explicit is set.
	Path     string
	Explicit bool
	// Flags, if set, override file and environment for flags the user changed.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load builds a Config from defaults, the YAML file, the environment and flags,
// in increasing precedence. The file is validated against the config schema
// before it is merged.
func Load(opts Options) (*Config, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	k := koanf.New(".")

	if opts.Path != "" {
		if err := loadFile(k, opts.Path, opts.Explicit); err != nil {
			return nil, err
		}
	}

	for env, key := range envKeys {
		if v := opts.Getenv(env); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_ENV_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string, explicit bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateYAML(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
