package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamesa/datamesa/internal/domain"
)

func TestLoadViewDefinitions(t *testing.T) {
	t.Run("missing file means no views", func(t *testing.T) {
		defs, err := LoadViewDefinitions(filepath.Join(t.TempDir(), "views.yaml"))
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("empty path means no views", func(t *testing.T) {
		defs, err := LoadViewDefinitions("")
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("parses definitions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "views.yaml")
		writeFile(t, path, `views:
  - name: daily_totals
    requires: [orders]
    query: SELECT order_date, SUM(amount) AS total FROM orders GROUP BY order_date
  - name: enriched
    requires: [orders, users]
    query: SELECT * FROM orders JOIN users USING (user_id)
`)
		defs, err := LoadViewDefinitions(path)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, "daily_totals", defs[0].Name)
		assert.Equal(t, []string{"orders"}, defs[0].Requires)
		assert.Equal(t, []string{"orders", "users"}, defs[1].Requires)
	})

	t.Run("rejects invalid view name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "views.yaml")
		writeFile(t, path, `views:
  - name: "bad;name"
    query: SELECT 1
`)
		_, err := LoadViewDefinitions(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad;name")
	})

	t.Run("rejects missing query", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "views.yaml")
		writeFile(t, path, `views:
  - name: empty_view
`)
		_, err := LoadViewDefinitions(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "views.yaml")
		writeFile(t, path, "views: [unclosed")
		_, err := LoadViewDefinitions(path)
		require.Error(t, err)
	})
}

func TestViewBuilderApply(t *testing.T) {
	exec := openTestExec(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE orders AS SELECT range AS id, range * 10 AS amount FROM range(4)`))

	defs := []domain.ViewDefinition{
		{Name: "order_totals", Requires: []string{"orders"}, Query: "SELECT SUM(amount) AS total FROM orders"},
		{Name: "needs_missing", Requires: []string{"users"}, Query: "SELECT * FROM users"},
	}
	b := NewViewBuilder(exec, defs, logger)

	b.Apply(ctx, map[string]bool{"orders": true})

	assert.Equal(t, []string{"order_totals"}, b.Active())
	assert.True(t, b.Has("order_totals"))
	assert.False(t, b.Has("needs_missing"))

	total, err := exec.Int64(ctx, `SELECT total FROM order_totals`)
	require.NoError(t, err)
	assert.Equal(t, int64(60), total)
}

func TestViewBuilderDropsWhenDependencyDisappears(t *testing.T) {
	exec := openTestExec(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE orders AS SELECT range AS id FROM range(3)`))

	defs := []domain.ViewDefinition{
		{Name: "order_ids", Requires: []string{"orders"}, Query: "SELECT id FROM orders"},
	}
	b := NewViewBuilder(exec, defs, logger)

	b.Apply(ctx, map[string]bool{"orders": true})
	require.True(t, b.Has("order_ids"))

	// Dependency gone: the view must be dropped, not left dangling.
	require.NoError(t, exec.Exec(ctx, `DROP TABLE orders`))
	b.Apply(ctx, map[string]bool{})

	assert.False(t, b.Has("order_ids"))
	_, err := exec.Int64(ctx, `SELECT COUNT(*) FROM order_ids`)
	require.Error(t, err)
}

func TestViewBuilderChainsDefinitions(t *testing.T) {
	exec := openTestExec(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE orders AS SELECT range AS id, range * 2 AS amount FROM range(5)`))

	// The second view depends on the first: definition order satisfies it.
	defs := []domain.ViewDefinition{
		{Name: "big_orders", Requires: []string{"orders"}, Query: "SELECT * FROM orders WHERE amount >= 4"},
		{Name: "big_order_count", Requires: []string{"big_orders"}, Query: "SELECT COUNT(*) AS n FROM big_orders"},
	}
	b := NewViewBuilder(exec, defs, logger)

	b.Apply(ctx, map[string]bool{"orders": true})
	assert.Equal(t, []string{"big_order_count", "big_orders"}, b.Active())

	n, err := exec.Int64(ctx, `SELECT n FROM big_order_count`)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestViewBuilderIsolatesBrokenView(t *testing.T) {
	exec := openTestExec(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE orders AS SELECT range AS id FROM range(3)`))

	defs := []domain.ViewDefinition{
		{Name: "broken", Requires: []string{"orders"}, Query: "SELECT no_such_column FROM orders"},
		{Name: "fine", Requires: []string{"orders"}, Query: "SELECT id FROM orders"},
	}
	b := NewViewBuilder(exec, defs, logger)

	b.Apply(ctx, map[string]bool{"orders": true})

	assert.False(t, b.Has("broken"))
	assert.True(t, b.Has("fine"))
}

func TestSynchronizerRebuildsViews(t *testing.T) {
	exec := openTestExec(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	root := t.TempDir()
	ordersPath := filepath.Join(root, "orders.csv")
	writeFile(t, ordersPath, "id,amount\n1,10\n2,20\n")

	defs := []domain.ViewDefinition{
		{Name: "order_totals", Requires: []string{"orders"}, Query: "SELECT SUM(amount) AS total FROM orders"},
	}
	views := NewViewBuilder(exec, defs, logger)
	s := NewSynchronizer(NewDiscoverer(root), NewLoader(exec), views, logger)

	_, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, views.Has("order_totals"))

	total, err := exec.Int64(ctx, `SELECT total FROM order_totals`)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)

	// The view follows its base table through updates...
	writeFile(t, ordersPath, "id,amount\n1,10\n2,20\n3,30\n")
	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	total, err = exec.Int64(ctx, `SELECT total FROM order_totals`)
	require.NoError(t, err)
	assert.Equal(t, int64(60), total)

	// ...and disappears when the table does.
	require.NoError(t, os.Remove(ordersPath))
	outcome, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, outcome.DeletedFiles, 1)
	assert.False(t, views.Has("order_totals"))
	_, err = exec.Int64(ctx, `SELECT total FROM order_totals`)
	require.Error(t, err)
}
