// Package engine opens the embedded DuckDB database and provides the
// row-scanning executor the services run their SQL through.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// Open opens a DuckDB database. An empty path opens an in-memory database.
//
// The pool is constrained to a single connection so session settings
// (SET threads) apply to every statement and in-memory state is never
// split across sessions.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// GOMAXPROCS tracks container CPU quotas; NumCPU does not.
	threads := runtime.GOMAXPROCS(0)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("SET threads = %d", threads)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set threads: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return db, nil
}

// Version returns the DuckDB library version string.
func Version(ctx context.Context, db *sql.DB) string {
	var v string
	_ = db.QueryRowContext(ctx, "SELECT version()").Scan(&v)
	return v
}
