// Package migrations lists the schema migrations for the cache database.
package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillgate/pkg/db"
	"github.com/pkg/errors"
)

// All returns all registered migrations. New migrations are appended here.
func All() []db.Migration {
	return []db.Migration{
		createIntentCache(),
	}
}

func createIntentCache() db.Migration {
	return db.Migration{
		Version:     20260301120000,
		Description: "Create intent_cache table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS intent_cache (
					cache_key TEXT PRIMARY KEY,
					analysis TEXT NOT NULL,
					created_at INTEGER NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create intent_cache table")
			}

			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_intent_cache_created_at
				ON intent_cache(created_at)
			`); err != nil {
				return errors.Wrap(err, "failed to create created_at index")
			}
			return nil
		},
	}
}
