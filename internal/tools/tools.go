// Package tools defines the named operations the server exposes over HTTP
// and MCP. Every tool takes JSON arguments, dispatches to a service, and has
// its outcome recorded in the call log.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/service/analytics"
	catalogsvc "github.com/datamesa/datamesa/internal/service/catalog"
	"github.com/datamesa/datamesa/internal/service/query"
)

// Handler executes one tool against its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Tool couples a tool's metadata with its handler. Schema is the JSON schema
// of the arguments, served to MCP clients and the tool listing endpoint.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"input_schema"`

	handler Handler
}

// Registry holds all registered tools in registration order and dispatches
// calls to them.
type Registry struct {
	tools  map[string]Tool
	order  []string
	calls  domain.ToolCallRepository
	logger *slog.Logger
}

// NewRegistry wires every tool to the query, analytics, and catalog services.
// calls may be nil, in which case invocations are not recorded.
func NewRegistry(q *query.Service, a *analytics.Service, c *catalogsvc.Service, calls domain.ToolCallRepository, logger *slog.Logger) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool),
		calls:  calls,
		logger: logger,
	}

	r.register(Tool{
		Name:        "list_tables",
		Description: "List all loaded tables and active derived views.",
		Schema:      json.RawMessage(emptySchema),
		handler: func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
			return c.ListTables(), nil
		},
	})

	r.register(Tool{
		Name:        "describe_table",
		Description: "Show the schema, row count, and a few sample rows of one table or view.",
		Schema:      json.RawMessage(describeTableSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req struct {
				Table string `json:"table"`
			}
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return c.Describe(ctx, req.Table)
		},
	})

	r.register(Tool{
		Name:        "execute_query",
		Description: "Run a SQL query and return the result set, truncated at the preview cap.",
		Schema:      json.RawMessage(executeQuerySchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req struct {
				Query string `json:"query"`
			}
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return q.Execute(ctx, req.Query)
		},
	})

	r.register(Tool{
		Name:        "aggregate_data",
		Description: "Group a table by one or more columns and compute aggregate functions.",
		Schema:      json.RawMessage(aggregateDataSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.AggregateRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.Aggregate(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "pivot_data",
		Description: "Pivot a table: distinct values of one column become columns, cells hold an aggregate.",
		Schema:      json.RawMessage(pivotDataSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.PivotRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.Pivot(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "top_n_analysis",
		Description: "Rank groups by an aggregated metric and return the top N.",
		Schema:      json.RawMessage(topNSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.TopNRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.TopN(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "window_functions",
		Description: "Apply a window function (row_number, rank, dense_rank, lag, lead, running_sum) over a table.",
		Schema:      json.RawMessage(windowSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.WindowRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.Window(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "join_tables",
		Description: "Join two loaded tables on key columns (inner, left, right, or full).",
		Schema:      json.RawMessage(joinSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.JoinRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.Join(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "time_series_analysis",
		Description: "Bucket a date column by day, week, month, quarter, or year and aggregate a value column per bucket.",
		Schema:      json.RawMessage(timeSeriesSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.TimeSeriesRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.TimeSeries(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "export_data",
		Description: "Run a query and write the full result to a CSV, Parquet, or JSON file.",
		Schema:      json.RawMessage(exportSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req domain.ExportRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return q.Export(ctx, req)
		},
	})

	r.register(Tool{
		Name:        "explain_query",
		Description: "Show the query plan for a SQL statement, optionally with execution timings.",
		Schema:      json.RawMessage(explainSchema),
		handler: func(ctx context.Context, args json.RawMessage) (interface{}, error) {
			var req struct {
				Query   string `json:"query"`
				Analyze bool   `json:"analyze"`
			}
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			plan, err := q.Explain(ctx, req.Query, req.Analyze)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"plan": plan}, nil
		},
	})

	r.register(Tool{
		Name:        "refresh_tables",
		Description: "Rescan the data directory now and reconcile the catalog.",
		Schema:      json.RawMessage(emptySchema),
		handler: func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
			return c.Refresh(ctx)
		},
	})

	r.register(Tool{
		Name:        "get_loaded_files",
		Description: "List the source files currently backing catalog tables.",
		Schema:      json.RawMessage(emptySchema),
		handler: func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
			files := c.LoadedFiles()
			return map[string]interface{}{"files": files, "count": len(files)}, nil
		},
	})

	r.register(Tool{
		Name:        "catalog_status",
		Description: "Report refresh configuration, catalog counts, refresh history, and recent tool calls.",
		Schema:      json.RawMessage(emptySchema),
		handler: func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
			return c.Status(ctx), nil
		},
	})

	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Call dispatches to the named tool and records the invocation in the call
// log. Recording is best-effort; a failed insert only logs a warning.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, domain.ErrNotFound("tool %q not found", name)
	}

	start := time.Now()
	result, err := t.handler(ctx, args)
	r.record(ctx, name, args, time.Since(start), err)
	return result, err
}

func (r *Registry) record(ctx context.Context, name string, args json.RawMessage, took time.Duration, callErr error) {
	if r.calls == nil {
		return
	}
	call := &domain.ToolCall{
		Tool:       name,
		Args:       string(args),
		Status:     domain.CallStatusOK,
		DurationMs: took.Milliseconds(),
	}
	if callErr != nil {
		call.Status = domain.CallStatusError
		call.Error = callErr.Error()
	}
	if err := r.calls.Insert(ctx, call); err != nil {
		r.logger.Warn("recording tool call failed", "tool", name, "error", err)
	}
}

// decodeArgs unmarshals raw tool arguments. nil or empty arguments decode to
// the zero value so tools without required fields accept a bare call.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return domain.ErrValidation("invalid arguments: %v", err)
	}
	return nil
}
