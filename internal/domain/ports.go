package domain

import "context"

// TableLoader loads source files into engine tables and drops them again.
// Implemented by catalog.Loader; faked in synchronizer tests.
type TableLoader interface {
	// Load creates or replaces the table from the file at path and
	// returns the resulting row count.
	Load(ctx context.Context, path, table string) (int64, error)
	// Drop removes the table if it exists.
	Drop(ctx context.Context, table string) error
}

// ToolCallRepository records tool invocations in the call log.
// Inserts are best-effort; a failed insert never fails the call itself.
type ToolCallRepository interface {
	Insert(ctx context.Context, call *ToolCall) error
	ListRecent(ctx context.Context, limit int) ([]ToolCall, error)
}
