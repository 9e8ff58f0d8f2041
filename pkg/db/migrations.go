package db

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Migration is a schema change identified by a YYYYMMDDHHmmss version.
type Migration struct {
	Version     int64
	Description string
	Up          func(*sql.Tx) error
}

const createSchemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL,
	description TEXT
)`

// Migrate applies, in version order, every migration not yet recorded in
// schema_migrations. Each migration runs in its own transaction and must be
// idempotent, since concurrent hook processes can race to apply it. It
// returns the number applied.
func Migrate(ctx context.Context, conn *sqlx.DB, migrations []Migration) (int, error) {
	done, err := AppliedVersions(ctx, conn)
	if err != nil {
		return 0, err
	}

	pending := slices.Clone(migrations)
	slices.SortFunc(pending, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})

	applied := 0
	for _, m := range pending {
		if slices.Contains(done, m.Version) {
			continue
		}
		if err := apply(ctx, conn, m); err != nil {
			return applied, errors.Wrapf(err, "failed to apply migration %d (%s)", m.Version, m.Description)
		}
		applied++
	}
	return applied, nil
}

// AppliedVersions lists recorded migration versions, oldest first.
func AppliedVersions(ctx context.Context, conn *sqlx.DB) ([]int64, error) {
	if _, err := conn.ExecContext(ctx, createSchemaMigrations); err != nil {
		return nil, errors.Wrap(err, "failed to create schema_migrations table")
	}
	var versions []int64
	if err := conn.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, errors.Wrap(err, "failed to list applied migrations")
	}
	return versions, nil
}

func apply(ctx context.Context, conn *sqlx.DB, m Migration) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := m.Up(tx.Tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		m.Version, time.Now().UTC(), m.Description); err != nil {
		return errors.Wrap(err, "failed to record migration")
	}
	return tx.Commit()
}
