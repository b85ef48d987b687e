package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datamesa/datamesa/internal/domain"
)

// Executor runs SQL against the DuckDB handle and scans rows into
// driver-agnostic result sets.
type Executor struct {
	db *sql.DB
}

// NewExecutor wraps a DuckDB *sql.DB.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// DB exposes the underlying handle for statements that need it directly.
func (e *Executor) DB() *sql.DB { return e.db }

// Exec executes a statement and discards any result.
func (e *Executor) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

// Query runs a query and scans the full result set.
func (e *Executor) Query(ctx context.Context, query string, args ...interface{}) (*domain.QueryResult, error) {
	return e.query(ctx, 0, query, args...)
}

// QueryPreview runs a query and scans at most limit rows. When more rows
// were available, the result is marked truncated. limit <= 0 scans everything.
func (e *Executor) QueryPreview(ctx context.Context, limit int, query string, args ...interface{}) (*domain.QueryResult, error) {
	return e.query(ctx, limit, query, args...)
}

// Int64 runs a query expected to return a single integer value.
func (e *Executor) Int64(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var v int64
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (e *Executor) query(ctx context.Context, limit int, query string, args ...interface{}) (*domain.QueryResult, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanRows(rows, limit)
}

// scanRows materializes rows into a QueryResult, converting []byte cells to
// strings for JSON serialization. A positive limit caps the scan and sets
// Truncated when rows remain.
func scanRows(rows *sql.Rows, limit int) (*domain.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var resultRows [][]interface{}
	truncated := false
	for rows.Next() {
		if limit > 0 && len(resultRows) >= limit {
			truncated = true
			break
		}
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:   cols,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
	}, nil
}
