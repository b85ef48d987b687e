package query

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

func newTestService(t *testing.T, previewRows int) (*Service, *engine.Executor) {
	t.Helper()
	db, err := engine.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	exec := engine.NewExecutor(db)
	return NewService(exec, previewRows, filepath.Join(t.TempDir(), "exports")), exec
}

func TestExecute(t *testing.T) {
	svc, _ := newTestService(t, 500)

	res, err := svc.Execute(context.Background(), "SELECT range AS n FROM range(3) ORDER BY n")
	require.NoError(t, err)

	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Equal(t, 3, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestExecuteTruncates(t *testing.T) {
	svc, _ := newTestService(t, 5)

	res, err := svc.Execute(context.Background(), "SELECT range FROM range(100)")
	require.NoError(t, err)

	assert.Equal(t, 5, res.RowCount)
	assert.True(t, res.Truncated)
}

func TestExecuteEmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, 500)

	_, err := svc.Execute(context.Background(), "   ")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestExecuteBadSQL(t *testing.T) {
	svc, _ := newTestService(t, 500)

	_, err := svc.Execute(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)

	var queryErr *domain.QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "SELECT * FROM no_such_table", queryErr.Query)
	assert.Contains(t, queryErr.Message, "no_such_table")
}

func TestExplain(t *testing.T) {
	svc, _ := newTestService(t, 500)

	plan, err := svc.Explain(context.Background(), "SELECT 1 AS one", false)
	require.NoError(t, err)
	assert.NotEmpty(t, plan)
	assert.Contains(t, plan, "PROJECTION")
}

func TestExplainAnalyze(t *testing.T) {
	svc, _ := newTestService(t, 500)

	plan, err := svc.Explain(context.Background(), "SELECT COUNT(*) FROM range(10)", true)
	require.NoError(t, err)
	assert.NotEmpty(t, plan)
}

func TestExplainBadSQL(t *testing.T) {
	svc, _ := newTestService(t, 500)

	_, err := svc.Explain(context.Background(), "SELECT * FROM nope", false)
	require.Error(t, err)

	var queryErr *domain.QueryError
	require.ErrorAs(t, err, &queryErr)
}

func TestExportCSV(t *testing.T) {
	svc, exec := newTestService(t, 500)
	ctx := context.Background()

	res, err := svc.Export(ctx, domain.ExportRequest{
		Query:  "SELECT range AS n FROM range(4)",
		Format: "csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, int64(4), res.RowCount)
	assert.True(t, strings.HasSuffix(res.Path, ".csv"))

	_, err = os.Stat(res.Path)
	require.NoError(t, err)

	// The exported file round-trips through the engine.
	count, err := exec.Int64(ctx, "SELECT COUNT(*) FROM read_csv_auto('"+res.Path+"')")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestExportParquet(t *testing.T) {
	svc, exec := newTestService(t, 500)
	ctx := context.Background()

	res, err := svc.Export(ctx, domain.ExportRequest{
		Query:    "SELECT range AS n FROM range(7)",
		Format:   "parquet",
		Filename: "numbers",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.RowCount)
	assert.Equal(t, "numbers.parquet", filepath.Base(res.Path))

	count, err := exec.Int64(ctx, "SELECT COUNT(*) FROM read_parquet('"+res.Path+"')")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestExportDefaultsToCSV(t *testing.T) {
	svc, _ := newTestService(t, 500)

	res, err := svc.Export(context.Background(), domain.ExportRequest{
		Query: "SELECT 1 AS one",
	})
	require.NoError(t, err)
	assert.Equal(t, "csv", res.Format)
	assert.True(t, strings.HasSuffix(res.Path, ".csv"))
}

func TestExportBadFormat(t *testing.T) {
	svc, _ := newTestService(t, 500)

	_, err := svc.Export(context.Background(), domain.ExportRequest{
		Query:  "SELECT 1",
		Format: "xlsx",
	})
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "xlsx")
}

func TestExportSanitizesFilename(t *testing.T) {
	svc, _ := newTestService(t, 500)

	res, err := svc.Export(context.Background(), domain.ExportRequest{
		Query:    "SELECT 1 AS one",
		Filename: "../../etc/passwd",
	})
	require.NoError(t, err)

	// The traversal is stripped; the file stays inside the export dir.
	assert.Equal(t, "passwd.csv", filepath.Base(res.Path))
	assert.NotContains(t, res.Path, "..")
}

func TestExportBadQuery(t *testing.T) {
	svc, _ := newTestService(t, 500)

	_, err := svc.Export(context.Background(), domain.ExportRequest{
		Query: "SELECT * FROM missing_table",
	})
	require.Error(t, err)

	var queryErr *domain.QueryError
	require.ErrorAs(t, err, &queryErr)
}
