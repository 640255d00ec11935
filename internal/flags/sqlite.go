// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/canplay/internal/log"
	"github.com/ManuGH/canplay/internal/metrics"
	"github.com/ManuGH/canplay/internal/persistence/sqlite"
)

const BackendSQLite = "sqlite"

const schemaFlags = `CREATE TABLE IF NOT EXISTS flags (
	name       TEXT PRIMARY KEY,
	enabled    INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLite persists flags in a local database. Rows that do not exist read
// as the flag default.
type SQLite struct {
	db       *sql.DB
	defaults defaults
	logger   zerolog.Logger
	now      func() time.Time
}

// OpenSQLite opens (and migrates) the flag database at path.
func OpenSQLite(ctx context.Context, path string, defaultValues map[string]bool) (*SQLite, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, schemaFlags); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{
		db:       db,
		defaults: newDefaults(defaultValues),
		logger:   xglog.WithComponent("flags").With().Str(xglog.FieldBackend, BackendSQLite).Logger(),
		now:      time.Now,
	}, nil
}

// Flag implements capability.Flags.
func (s *SQLite) Flag(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var enabled bool
	err := s.db.QueryRowContext(ctx, `SELECT enabled FROM flags WHERE name = ?`, name).Scan(&enabled)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.defaults[name]
	case err != nil:
		metrics.RecordFlagReadError(BackendSQLite)
		s.logger.Warn().Err(err).Str(xglog.FieldFlag, name).Msg("sqlite flag read failed, using default")
		return s.defaults[name]
	}
	return enabled
}

// Set writes a known flag.
func (s *SQLite) Set(ctx context.Context, name string, value bool) error {
	if err := s.defaults.check(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO flags (name, enabled, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		name, value, s.now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite set flag %q: %w", name, err)
	}
	metrics.RecordFlagChange(BackendSQLite, name, value)
	return nil
}

// Snapshot returns stored values overlaid on defaults.
func (s *SQLite) Snapshot(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, enabled FROM flags`)
	if err != nil {
		return nil, fmt.Errorf("sqlite snapshot: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]bool)
	for rows.Next() {
		var (
			name    string
			enabled bool
		)
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, fmt.Errorf("sqlite snapshot scan: %w", err)
		}
		stored[name] = enabled
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite snapshot rows: %w", err)
	}
	return s.defaults.merged(stored), nil
}

func (s *SQLite) Backend() string { return BackendSQLite }

// HealthCheck runs an integrity quick check.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	issues, err := sqlite.QuickCheck(ctx, s.db)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("sqlite integrity: %v", issues)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
