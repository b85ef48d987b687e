// Package catalog exposes the live catalog to callers: table listings,
// schema descriptions, manual refresh, and status reporting.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datamesa/datamesa/internal/catalog"
	"github.com/datamesa/datamesa/internal/ddl"
	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

// sampleRowLimit bounds the sample returned by Describe.
const sampleRowLimit = 5

// TableListing is the list_tables payload: base tables with their source
// metadata, derived views by name.
type TableListing struct {
	Tables []domain.TableInfo `json:"tables"`
	Views  []string           `json:"views"`
}

// Service reads the live catalog and triggers refreshes.
type Service struct {
	sync        *catalog.Synchronizer
	views       *catalog.ViewBuilder
	exec        *engine.Executor
	calls       domain.ToolCallRepository
	autoRefresh bool
	interval    time.Duration
	logger      *slog.Logger
}

// NewService creates the catalog service. views may be nil when no derived
// views are configured.
func NewService(sync *catalog.Synchronizer, views *catalog.ViewBuilder, exec *engine.Executor,
	calls domain.ToolCallRepository, autoRefresh bool, interval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		sync:        sync,
		views:       views,
		exec:        exec,
		calls:       calls,
		autoRefresh: autoRefresh,
		interval:    interval,
		logger:      logger,
	}
}

// ListTables returns every loaded base table and the active derived views.
func (s *Service) ListTables() *TableListing {
	listing := &TableListing{
		Tables: s.sync.Tables(),
		Views:  []string{},
	}
	if s.views != nil {
		listing.Views = s.views.Active()
	}
	return listing
}

// Describe returns a table's schema and a small sample of rows. Unknown
// names are rejected before any SQL runs.
func (s *Service) Describe(ctx context.Context, table string) (*domain.TableDetail, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, domain.ErrValidation("table: %s", err.Error())
	}

	info, isTable := s.sync.TableInfo(table)
	isView := s.views != nil && s.views.Has(table)
	if !isTable && !isView {
		return nil, domain.ErrNotFound("table %q not found", table)
	}

	detail := &domain.TableDetail{Name: table}

	stmt, err := ddl.DescribeTable(table)
	if err != nil {
		return nil, domain.ErrValidation("%s", err.Error())
	}
	res, err := s.exec.Query(ctx, stmt)
	if err != nil {
		return nil, domain.ErrQuery(stmt, "%s", err.Error())
	}
	detail.Columns = columnsFromDescribe(res)

	if isTable {
		detail.RowCount = info.RowCount
	} else {
		countStmt, err := ddl.CountRows(table)
		if err != nil {
			return nil, domain.ErrValidation("%s", err.Error())
		}
		count, err := s.exec.Int64(ctx, countStmt)
		if err != nil {
			return nil, domain.ErrQuery(countStmt, "%s", err.Error())
		}
		detail.RowCount = count
	}

	sampleStmt, err := ddl.SampleRows(table, sampleRowLimit)
	if err != nil {
		return nil, domain.ErrValidation("%s", err.Error())
	}
	sample, err := s.exec.Query(ctx, sampleStmt)
	if err != nil {
		return nil, domain.ErrQuery(sampleStmt, "%s", err.Error())
	}
	detail.Sample = sample

	return detail, nil
}

// columnsFromDescribe maps the engine's DESCRIBE rows (column_name,
// column_type, null, ...) to ColumnInfo.
func columnsFromDescribe(res *domain.QueryResult) []domain.ColumnInfo {
	cols := make([]domain.ColumnInfo, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 3 {
			continue
		}
		cols = append(cols, domain.ColumnInfo{
			Name:     fmt.Sprintf("%v", row[0]),
			Type:     fmt.Sprintf("%v", row[1]),
			Nullable: fmt.Sprintf("%v", row[2]) == "YES",
		})
	}
	return cols
}

// Refresh runs one synchronization pass immediately. It shares the pass
// mutex with the background scheduler.
func (s *Service) Refresh(ctx context.Context) (*domain.RefreshOutcome, error) {
	return s.sync.Refresh(ctx)
}

// LoadedFiles returns the tracked file records, sorted by path.
func (s *Service) LoadedFiles() []domain.FileRecord {
	return s.sync.Records()
}

// Status reports refresh configuration, recent outcomes, and the latest
// recorded tool calls. A call-log read failure degrades to an empty list.
func (s *Service) Status(ctx context.Context) *domain.CatalogStatus {
	status := &domain.CatalogStatus{
		AutoRefresh:     s.autoRefresh,
		RefreshInterval: s.interval.String(),
		TableCount:      s.sync.TableCount(),
		LastRefresh:     s.sync.Last(),
		History:         s.sync.History(),
	}
	if s.views != nil {
		status.ViewCount = len(s.views.Active())
	}
	if s.calls != nil {
		calls, err := s.calls.ListRecent(ctx, 20)
		if err != nil {
			s.logger.Warn("reading call log failed", "error", err)
		} else {
			status.RecentCalls = calls
		}
	}
	return status
}
