package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Executor {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewExecutor(db)
}

func TestExecutorQuery(t *testing.T) {
	exec := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE nums AS SELECT * FROM range(10) t(n)`))

	res, err := exec.Query(ctx, `SELECT n FROM nums ORDER BY n`)
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Equal(t, 10, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestExecutorQueryPreviewTruncates(t *testing.T) {
	exec := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, exec.Exec(ctx, `CREATE TABLE nums AS SELECT * FROM range(100) t(n)`))

	res, err := exec.QueryPreview(ctx, 5, `SELECT n FROM nums ORDER BY n`)
	require.NoError(t, err)
	assert.Equal(t, 5, res.RowCount)
	assert.True(t, res.Truncated)

	// Limit larger than the result set leaves the flag unset.
	res, err = exec.QueryPreview(ctx, 500, `SELECT n FROM nums`)
	require.NoError(t, err)
	assert.Equal(t, 100, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestExecutorInt64(t *testing.T) {
	exec := openTestDB(t)
	ctx := context.Background()

	n, err := exec.Int64(ctx, `SELECT 41 + 1`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestExecutorQueryError(t *testing.T) {
	exec := openTestDB(t)
	ctx := context.Background()

	_, err := exec.Query(ctx, `SELECT * FROM no_such_table`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestVersion(t *testing.T) {
	exec := openTestDB(t)
	v := Version(context.Background(), exec.DB())
	assert.NotEmpty(t, v)
}
