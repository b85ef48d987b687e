// Package db opens the SQLite metadata store that keeps the tool-call log
// and runs its embedded migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// SQLite DSN parameters for production hardening.
const (
	busyTimeoutMs = "5000"
	synchronous   = "NORMAL"
	journalMode   = "WAL"

	readPoolSize = 4
)

// Open opens the write and read pools for the metadata store at path.
//
// SQLite allows a single writer: the write pool is capped at one connection
// and takes transactions with an immediate lock, while reads fan out over a
// small pool. Both pools run WAL journaling, busy_timeout=5000ms,
// synchronous=NORMAL, and foreign_keys=on.
func Open(path string) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = openPool(path, true)
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata store (write): %w", err)
	}
	readDB, err = openPool(path, false)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, fmt.Errorf("open metadata store (read): %w", err)
	}
	return writeDB, readDB, nil
}

func openPool(path string, write bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path, write))
	if err != nil {
		return nil, err
	}

	if write {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(readPoolSize)
		db.SetMaxIdleConns(readPoolSize)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// dsn constructs a SQLite DSN with hardened parameters.
func dsn(path string, write bool) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMs)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	if write {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
