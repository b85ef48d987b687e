package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/datamesa/datamesa/internal/domain"
)

// Compile-time check.
var _ domain.ToolCallRepository = (*ToolCallRepo)(nil)

// ToolCallRepo persists tool invocations in the SQLite metadata store.
// Writes go through the single-writer pool, reads through the read pool.
type ToolCallRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewToolCallRepo creates a new ToolCallRepo.
func NewToolCallRepo(writeDB, readDB *sql.DB) *ToolCallRepo {
	return &ToolCallRepo{writeDB: writeDB, readDB: readDB}
}

// Insert records one tool invocation. Missing ID and CreatedAt fields are
// filled in.
func (r *ToolCallRepo) Insert(ctx context.Context, call *domain.ToolCall) error {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	_, err := r.writeDB.ExecContext(ctx,
		`INSERT INTO tool_calls (id, tool, args, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		call.ID, call.Tool, call.Args, call.Status, call.Error, call.DurationMs, call.CreatedAt)
	return err
}

// ListRecent returns the newest calls first, at most limit of them.
func (r *ToolCallRepo) ListRecent(ctx context.Context, limit int) ([]domain.ToolCall, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT id, tool, args, status, error, duration_ms, created_at
		 FROM tool_calls ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var calls []domain.ToolCall
	for rows.Next() {
		var c domain.ToolCall
		if err := rows.Scan(&c.ID, &c.Tool, &c.Args, &c.Status, &c.Error, &c.DurationMs, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
