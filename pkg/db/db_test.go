package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDirectoryAndEnablesWAL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "cache.db")

	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)

	var mode string
	require.NoError(t, db.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("with SKILLGATE_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLGATE_BASE_PATH", "/custom/path")
		path, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, "/custom/path/cache.db", path)
	})

	t.Run("without SKILLGATE_BASE_PATH", func(t *testing.T) {
		t.Setenv("SKILLGATE_BASE_PATH", "")
		path, err := DefaultDBPath()
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".skillgate", "cache.db"), path)
	})
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	calls := 0
	migrations := []Migration{
		{
			Version:     20240101000002,
			Description: "Add column",
			Up: func(tx *sql.Tx) error {
				calls++
				_, err := tx.Exec("ALTER TABLE things ADD COLUMN label TEXT")
				return err
			},
		},
		{
			Version:     20240101000001,
			Description: "Create table",
			Up: func(tx *sql.Tx) error {
				calls++
				_, err := tx.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY)")
				return err
			},
		},
	}

	applied, err := Migrate(ctx, db, migrations)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = Migrate(ctx, db, migrations)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, 2, calls, "migrations run once, in version order")

	versions, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int64{20240101000001, 20240101000002}, versions)
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(ctx, db, []Migration{{
		Version:     20240101000001,
		Description: "Broken",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE partial (id INTEGER)"); err != nil {
				return err
			}
			_, err := tx.Exec("NOT SQL")
			return err
		},
	}})
	assert.ErrorContains(t, err, "20240101000001 (Broken)")

	versions, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, versions)

	var count int
	require.NoError(t, db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE name = 'partial'"))
	assert.Zero(t, count)
}
