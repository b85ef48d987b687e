package db

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesHardening(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")
	writeDB, readDB, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	ctx := context.Background()
	var mode string
	require.NoError(t, writeDB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, readDB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, writeDB.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrationsCreateCallLog(t *testing.T) {
	writeDB, _ := OpenTestDB(t)

	var name string
	err := writeDB.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'tool_calls'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", name)

	// Running migrations again is a no-op.
	require.NoError(t, RunMigrations(writeDB))
}
