package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jingkaihe/skillgate/pkg/db"
	"github.com/jingkaihe/skillgate/pkg/db/migrations"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SQLiteStore persists entries so they survive between hook processes.
type SQLiteStore struct {
	db *sqlx.DB
}

type cacheRow struct {
	Key       string `db:"cache_key"`
	Analysis  string `db:"analysis"`
	CreatedAt int64  `db:"created_at"`
}

// NewSQLiteStore opens the database at path and migrates it.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlDB, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	applied, err := db.Migrate(ctx, sqlDB, migrations.All())
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if applied > 0 {
		logger.G(ctx).WithField("applied", applied).Debug("migrated response cache schema")
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var row cacheRow
	err := s.db.GetContext(ctx, &row,
		"SELECT cache_key, analysis, created_at FROM intent_cache WHERE cache_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "failed to query intent cache")
	}

	entry := Entry{Key: row.Key, CreatedAt: time.UnixMilli(row.CreatedAt)}
	if err := json.Unmarshal([]byte(row.Analysis), &entry.Analysis); err != nil {
		return Entry{}, false, errors.Wrap(err, "failed to decode cached analysis")
	}
	return entry, true, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry.Analysis)
	if err != nil {
		return errors.Wrap(err, "failed to encode analysis")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intent_cache (cache_key, analysis, created_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET analysis = excluded.analysis, created_at = excluded.created_at
	`, entry.Key, string(data), entry.CreatedAt.UnixMilli())
	return errors.Wrap(err, "failed to write intent cache")
}

// DeleteOlderThan implements Store.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM intent_cache WHERE created_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "failed to evict intent cache")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "failed to count evicted entries")
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM intent_cache")
	if err != nil {
		return 0, errors.Wrap(err, "failed to clear intent cache")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "failed to count cleared entries")
}
