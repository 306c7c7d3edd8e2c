// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register the pgx5:// driver with golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema change.
type Migration struct {
	Version uint
	Name    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Status describes where a database sits relative to the embedded migrations.
type Status struct {
	Version uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

var upFile = regexp.MustCompile(`^(\d{6})_(\w+)\.up\.sql$`)

// Catalog lists the embedded migrations in version order.
var Catalog = sync.OnceValues(func() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_CATALOG_FAILED").Wrap(err)
	}
	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".down.sql") {
			continue
		}
		match := upFile.FindStringSubmatch(name)
		if match == nil {
			return nil, oops.Code("MIGRATION_CATALOG_FAILED").
				With("file", name).
				Errorf("migration file %q is not NNNNNN_name.up.sql", name)
		}
		v, _ := strconv.ParseUint(match[1], 10, 32) //nolint:errcheck // six digits always parse
		out = append(out, Migration{Version: uint(v), Name: match[2]})
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
})

// driver is the subset of *migrate.Migrate that Migrator drives.
type driver interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	m driver
}

// NewMigrator opens a Migrator for a postgres://, postgresql:// or pgx5:// URL.
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(databaseURL))
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error wins
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

// driverURL rewrites libpq-style schemes to the one the pgx/v5 migrate driver registers.
func driverURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// run maps migrate.ErrNoChange to success and codes everything else.
func run(code string, err error, kv ...any) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return oops.Code(code).With(kv...).Wrap(err)
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return run("MIGRATION_UP_FAILED", m.m.Up())
}

// Down reverts every applied migration, dropping all ChargeShare tables.
func (m *Migrator) Down() error {
	return run("MIGRATION_DOWN_FAILED", m.m.Down())
}

// Steps migrates n versions up (n > 0) or down (n < 0).
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	return run("MIGRATION_STEPS_FAILED", m.m.Steps(n), "steps", n)
}

// Version reports the applied version; 0 means nothing has been applied.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return v, dirty, nil
}

// Force records version as applied and clears the dirty flag without running SQL.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("MIGRATION_VERSION_INVALID").
			With("version", version).
			Errorf("version must be non-negative, got %d", version)
	}
	return run("MIGRATION_FORCE_FAILED", m.m.Force(version), "version", version)
}

// Status splits the catalog around the applied version.
func (m *Migrator) Status() (Status, error) {
	v, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	all, err := Catalog()
	if err != nil {
		return Status{}, err
	}
	st := Status{Version: v, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= v {
			st.Applied = append(st.Applied, mig)
		} else {
			st.Pending = append(st.Pending, mig)
		}
	}
	return st, nil
}

// Close releases the migration source and database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
