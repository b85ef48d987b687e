package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamesa/datamesa/internal/config"
	internaldb "github.com/datamesa/datamesa/internal/db"
	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

func newTestDeps(t *testing.T, cfg *config.Config) Deps {
	t.Helper()
	duckDB, err := engine.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = duckDB.Close() })

	writeDB, readDB := internaldb.OpenTestDB(t)

	return Deps{
		Cfg:     cfg,
		DuckDB:  duckDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func baseConfig(dataDir string) *config.Config {
	return &config.Config{
		DataDir:          dataDir,
		RefreshInterval:  time.Minute,
		AutoRefresh:      true,
		ExportDir:        filepath.Join(dataDir, "exports"),
		QueryPreviewRows: 100,
		JoinRowCap:       100,
	}
}

func TestNewWiresRegistry(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "orders.csv"), []byte("id,amount\n1,10\n"), 0o644))

	a, err := New(newTestDeps(t, baseConfig(root)))
	require.NoError(t, err)
	require.NotNil(t, a.Scheduler, "auto refresh on means a scheduler")
	assert.Nil(t, a.Views, "no views file configured")

	_, err = a.Sync.Refresh(context.Background())
	require.NoError(t, err)

	result, err := a.Registry.Call(context.Background(), "execute_query", json.RawMessage(`{"query": "SELECT COUNT(*) AS n FROM orders"}`))
	require.NoError(t, err)
	res, ok := result.(*domain.QueryResult)
	require.True(t, ok)
	assert.Equal(t, int64(1), res.Rows[0][0])
}

func TestNewWithoutAutoRefresh(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.AutoRefresh = false

	a, err := New(newTestDeps(t, cfg))
	require.NoError(t, err)
	assert.Nil(t, a.Scheduler)
}

func TestNewLoadsViews(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "orders.csv"), []byte("id,amount\n1,10\n2,20\n"), 0o644))

	viewsPath := filepath.Join(root, "views.yaml")
	viewsYAML := "views:\n  - name: order_totals\n    requires: [orders]\n    query: SELECT SUM(amount) AS total FROM orders\n"
	require.NoError(t, os.WriteFile(viewsPath, []byte(viewsYAML), 0o644))

	cfg := baseConfig(root)
	cfg.ViewsPath = viewsPath

	a, err := New(newTestDeps(t, cfg))
	require.NoError(t, err)
	require.NotNil(t, a.Views)

	_, err = a.Sync.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"order_totals"}, a.Views.Active())
}

func TestNewRejectsBrokenViewsFile(t *testing.T) {
	root := t.TempDir()
	viewsPath := filepath.Join(root, "views.yaml")
	require.NoError(t, os.WriteFile(viewsPath, []byte("views: [not: {valid"), 0o644))

	cfg := baseConfig(root)
	cfg.ViewsPath = viewsPath

	_, err := New(newTestDeps(t, cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load view definitions")
}

func TestToolCallsLandInCallLog(t *testing.T) {
	root := t.TempDir()
	deps := newTestDeps(t, baseConfig(root))

	a, err := New(deps)
	require.NoError(t, err)

	_, err = a.Registry.Call(context.Background(), "catalog_status", nil)
	require.NoError(t, err)

	var n int
	require.NoError(t, deps.ReadDB.QueryRow(`SELECT COUNT(*) FROM tool_calls WHERE tool = 'catalog_status'`).Scan(&n))
	assert.Equal(t, 1, n)
}
