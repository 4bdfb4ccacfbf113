package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")

	db, err := OpenAndMigrate(path, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, table := range []string{"trades", "account", "config", "comments", "pending_closes"} {
		assert.True(t, found[table], "missing table %s", table)
	}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")

	db, err := OpenAndMigrate(path, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, RunMigrations(db))
}

func TestOpenAppliesBusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")

	db, err := Open(path, 1500*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var timeout int
	require.NoError(t, db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 1500, timeout)
}
