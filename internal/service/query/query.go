// Package query runs raw SQL, explain plans, and result exports against the
// analytical engine.
package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/datamesa/datamesa/internal/ddl"
	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

// Service executes caller-supplied SQL with result caps and writes exports.
type Service struct {
	exec        *engine.Executor
	previewRows int
	exportDir   string
}

// NewService creates a query service. previewRows caps every result set;
// exports are written under exportDir.
func NewService(exec *engine.Executor, previewRows int, exportDir string) *Service {
	return &Service{exec: exec, previewRows: previewRows, exportDir: exportDir}
}

// Execute runs one SQL statement and returns up to the configured number of
// rows, with a flag set when more were available. Engine errors come back as
// QueryErrors carrying the statement text.
func (s *Service) Execute(ctx context.Context, sqlQuery string) (*domain.QueryResult, error) {
	trimmed := strings.TrimSpace(sqlQuery)
	if trimmed == "" {
		return nil, domain.ErrValidation("query is required")
	}
	res, err := s.exec.QueryPreview(ctx, s.previewRows, trimmed)
	if err != nil {
		return nil, domain.ErrQuery(trimmed, "%s", err.Error())
	}
	return res, nil
}

// Explain returns the engine's plan for a query as text, one plan line per
// row. With analyze set the query actually runs and the plan carries timings.
func (s *Service) Explain(ctx context.Context, sqlQuery string, analyze bool) (string, error) {
	trimmed := strings.TrimSpace(sqlQuery)
	if trimmed == "" {
		return "", domain.ErrValidation("query is required")
	}
	stmt, err := ddl.Explain(trimmed, analyze)
	if err != nil {
		return "", domain.ErrValidation("%s", err.Error())
	}
	res, err := s.exec.Query(ctx, stmt)
	if err != nil {
		return "", domain.ErrQuery(trimmed, "%s", err.Error())
	}

	// EXPLAIN rows are (key, text) pairs; the text column holds the plan.
	var b strings.Builder
	for _, row := range res.Rows {
		for _, cell := range row {
			if cell == nil {
				continue
			}
			fmt.Fprintln(&b, cell)
		}
	}
	return b.String(), nil
}

// Export runs the query and copies the full result to a file under the
// export directory. The row count is computed up front, so the query must be
// a SELECT.
func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportResult, error) {
	trimmed := strings.TrimSpace(req.Query)
	if trimmed == "" {
		return nil, domain.ErrValidation("query is required")
	}
	format, ext, err := exportFormat(req.Format)
	if err != nil {
		return nil, err
	}

	count, err := s.exec.Int64(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS export_rows", trimmed))
	if err != nil {
		return nil, domain.ErrQuery(trimmed, "%s", err.Error())
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(s.exportDir, exportFilename(req.Filename, ext))

	stmt, err := ddl.ExportTo(trimmed, path, format)
	if err != nil {
		return nil, domain.ErrValidation("%s", err.Error())
	}
	if err := s.exec.Exec(ctx, stmt); err != nil {
		return nil, domain.ErrQuery(trimmed, "%s", err.Error())
	}

	return &domain.ExportResult{Path: path, Format: format, RowCount: count}, nil
}

// exportFormat normalizes the requested format and picks the file extension.
// An empty format means CSV.
func exportFormat(format string) (name, ext string, err error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return "csv", "csv", nil
	case "parquet":
		return "parquet", "parquet", nil
	case "json":
		return "json", "json", nil
	default:
		return "", "", domain.ErrValidation("unsupported export format %q (want csv, parquet, or json)", format)
	}
}

// exportFilename sanitizes a requested filename down to its base name and
// makes sure it carries the format extension. Without a request a unique
// name is generated.
func exportFilename(requested, ext string) string {
	name := strings.TrimSpace(requested)
	if name != "" {
		name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	}
	if name == "" || name == "." || name == "/" {
		name = "export_" + uuid.NewString()
	}
	if !strings.HasSuffix(strings.ToLower(name), "."+ext) {
		name += "." + ext
	}
	return name
}
