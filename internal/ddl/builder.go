// Package ddl builds DuckDB statements for file-backed tables, derived views,
// and result exports. All identifiers are validated and quoted; file paths are
// escaped as SQL literals.
package ddl

import (
	"fmt"
	"strings"
)

// readFunc maps a source file format to the DuckDB table function that reads it.
func readFunc(format string) (string, error) {
	switch strings.ToLower(format) {
	case "csv", "tsv":
		return "read_csv_auto", nil
	case "parquet":
		return "read_parquet", nil
	default:
		return "", fmt.Errorf("unsupported file format: %q", format)
	}
}

// CreateTableFromFile returns a statement that creates or replaces a table
// from a source file:
//
//	CREATE OR REPLACE TABLE "name" AS SELECT * FROM read_csv_auto('path')
//
// CREATE OR REPLACE keeps the old table visible until the replacement commits,
// so readers never observe a missing table during a reload.
func CreateTableFromFile(table, path, format string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("source path is required")
	}
	fn, err := readFunc(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s(%s)",
		QuoteIdentifier(table), fn, QuoteLiteral(path)), nil
}

// DropTable returns: DROP TABLE IF EXISTS "name".
func DropTable(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdentifier(table)), nil
}

// CreateView returns: CREATE OR REPLACE VIEW "name" AS <query>.
// The query text comes from operator-maintained view definitions, not from
// callers, so only the view name is validated here.
func CreateView(name, query string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("view query is required")
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", QuoteIdentifier(name), query), nil
}

// DropView returns: DROP VIEW IF EXISTS "name".
func DropView(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	return fmt.Sprintf("DROP VIEW IF EXISTS %s", QuoteIdentifier(name)), nil
}

// CountRows returns: SELECT COUNT(*) FROM "name".
func CountRows(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdentifier(table)), nil
}

// DescribeTable returns: DESCRIBE "name".
func DescribeTable(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("DESCRIBE %s", QuoteIdentifier(table)), nil
}

// SampleRows returns: SELECT * FROM "name" LIMIT n.
func SampleRows(table string, limit int) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if limit <= 0 {
		return "", fmt.Errorf("limit must be positive")
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdentifier(table), limit), nil
}

// ExportTo returns a COPY statement writing the query result to a file:
//
//	COPY (<query>) TO 'path' (FORMAT CSV, HEADER)
//
// Supported formats: csv, parquet, json.
func ExportTo(query, path, format string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is required")
	}
	if path == "" {
		return "", fmt.Errorf("target path is required")
	}
	var opts string
	switch strings.ToLower(format) {
	case "csv", "":
		opts = "FORMAT CSV, HEADER"
	case "parquet":
		opts = "FORMAT PARQUET"
	case "json":
		opts = "FORMAT JSON, ARRAY true"
	default:
		return "", fmt.Errorf("unsupported export format: %q", format)
	}
	return fmt.Sprintf("COPY (%s) TO %s (%s)", query, QuoteLiteral(path), opts), nil
}

// Explain wraps a query in EXPLAIN or EXPLAIN ANALYZE.
func Explain(query string, analyze bool) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is required")
	}
	if analyze {
		return "EXPLAIN ANALYZE " + query, nil
	}
	return "EXPLAIN " + query, nil
}
