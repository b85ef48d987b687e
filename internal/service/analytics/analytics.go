// Package analytics compiles parameterized analytical operations (aggregate,
// pivot, top-N, window functions, joins, time-series rollups) into SQL and
// runs them against the engine.
//
// Identifiers from callers are validated against a strict allow-list before
// interpolation; filter values travel as SQL parameters. Anything the
// validator rejects never reaches the engine.
package analytics

import (
	"context"

	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

// Service runs analytical operations with result caps.
type Service struct {
	exec        *engine.Executor
	previewRows int
	joinRowCap  int
}

// NewService creates the analytics service. previewRows bounds every result
// set; joinRowCap bounds join output separately.
func NewService(exec *engine.Executor, previewRows, joinRowCap int) *Service {
	return &Service{exec: exec, previewRows: previewRows, joinRowCap: joinRowCap}
}

// run executes a compiled statement under the preview cap, mapping engine
// failures to QueryErrors carrying the statement.
func (s *Service) run(ctx context.Context, limit int, stmt string, args []interface{}) (*domain.QueryResult, error) {
	res, err := s.exec.QueryPreview(ctx, limit, stmt, args...)
	if err != nil {
		return nil, domain.ErrQuery(stmt, "%s", err.Error())
	}
	return res, nil
}

// Aggregate runs a GROUP BY rollup. An empty group_by is rejected before
// any SQL is issued.
func (s *Service) Aggregate(ctx context.Context, req domain.AggregateRequest) (*domain.QueryResult, error) {
	stmt, args, err := aggregateSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.previewRows, stmt, args)
}

// Pivot reshapes a table with the engine's native PIVOT.
func (s *Service) Pivot(ctx context.Context, req domain.PivotRequest) (*domain.QueryResult, error) {
	stmt, err := pivotSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.previewRows, stmt, nil)
}

// TopN returns the highest (or lowest) N groups by an aggregated metric.
func (s *Service) TopN(ctx context.Context, req domain.TopNRequest) (*domain.QueryResult, error) {
	stmt, err := topNSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.previewRows, stmt, nil)
}

// Window applies one of the fixed window functions over the table.
func (s *Service) Window(ctx context.Context, req domain.WindowRequest) (*domain.QueryResult, error) {
	stmt, err := windowSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.previewRows, stmt, nil)
}

// Join joins two loaded tables on the named key columns, bounded by the
// join row cap.
func (s *Service) Join(ctx context.Context, req domain.JoinRequest) (*domain.QueryResult, error) {
	stmt, err := joinSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.joinRowCap, stmt, nil)
}

// TimeSeries buckets a date column and aggregates the value column per
// bucket.
func (s *Service) TimeSeries(ctx context.Context, req domain.TimeSeriesRequest) (*domain.QueryResult, error) {
	stmt, args, err := timeSeriesSQL(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.previewRows, stmt, args)
}
