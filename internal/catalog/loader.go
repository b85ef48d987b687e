package catalog

import (
	"context"

	"github.com/datamesa/datamesa/internal/ddl"
	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

// Compile-time check.
var _ domain.TableLoader = (*Loader)(nil)

// Loader turns source files into engine tables. Load failures are returned
// as LoadErrors carrying the path and derived table name; the loader never
// drops a previous table version on a failed reload because the replace
// statement only commits on success.
type Loader struct {
	exec *engine.Executor
}

// NewLoader creates a Loader on top of the engine executor.
func NewLoader(exec *engine.Executor) *Loader {
	return &Loader{exec: exec}
}

// Load creates or replaces the table from the file at path and returns the
// new row count.
func (l *Loader) Load(ctx context.Context, path, table string) (int64, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return 0, domain.ErrLoad(path, table, "unsupported file format")
	}

	stmt, err := ddl.CreateTableFromFile(table, path, format)
	if err != nil {
		return 0, domain.ErrLoad(path, table, "%s", err.Error())
	}
	if err := l.exec.Exec(ctx, stmt); err != nil {
		return 0, domain.ErrLoad(path, table, "%s", err.Error())
	}

	countStmt, err := ddl.CountRows(table)
	if err != nil {
		return 0, domain.ErrLoad(path, table, "%s", err.Error())
	}
	rows, err := l.exec.Int64(ctx, countStmt)
	if err != nil {
		return 0, domain.ErrLoad(path, table, "count rows: %s", err.Error())
	}
	return rows, nil
}

// Drop removes the table if it exists.
func (l *Loader) Drop(ctx context.Context, table string) error {
	stmt, err := ddl.DropTable(table)
	if err != nil {
		return err
	}
	return l.exec.Exec(ctx, stmt)
}
