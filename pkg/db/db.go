// Package db opens the SQLite database that backs the persistent response
// cache and applies its schema migrations.
package db

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every connection. Several hook
// processes may share one file, hence WAL and a busy timeout.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"busy_timeout(5000)",
}

// DefaultDBPath returns $SKILLGATE_BASE_PATH/cache.db, or
// ~/.skillgate/cache.db when the variable is unset.
func DefaultDBPath() (string, error) {
	if base := os.Getenv("SKILLGATE_BASE_PATH"); base != "" {
		return filepath.Join(base, "cache.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".skillgate", "cache.db"), nil
}

// Open opens or creates the database at path, creating parent directories
// as needed, and checks that write-ahead logging took effect.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sqlx.ConnectContext(ctx, "sqlite", dsn(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	var mode string
	if err := conn.GetContext(ctx, &mode, "PRAGMA journal_mode"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to query journal mode")
	}
	if !strings.EqualFold(mode, "wal") {
		conn.Close()
		return nil, errors.Errorf("WAL mode not enabled, journal mode is %s", mode)
	}
	return conn, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}
