// Package domain defines core types, interfaces, and errors for the catalog service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input, rejected before any SQL ran.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., two files claiming one table name).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// QueryError indicates the engine rejected or failed a SQL statement.
// Query carries the statement text so callers can see what was executed.
type QueryError struct {
	Query   string
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// LoadError indicates a single source file failed to load into a table.
// It never aborts a refresh pass; the failure is recorded per file.
type LoadError struct {
	Path    string
	Table   string
	Message string
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %s", e.Path, e.Message) }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrQuery creates a QueryError for the given statement.
func ErrQuery(query string, format string, args ...interface{}) *QueryError {
	return &QueryError{Query: query, Message: fmt.Sprintf(format, args...)}
}

// ErrLoad creates a LoadError for the given source path and derived table.
func ErrLoad(path, table string, format string, args ...interface{}) *LoadError {
	return &LoadError{Path: path, Table: table, Message: fmt.Sprintf(format, args...)}
}
