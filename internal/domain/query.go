package domain

// QueryResult holds the structured output of a SQL query.
// Truncated is set when the row set was cut off at the preview cap.
type QueryResult struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Truncated bool            `json:"truncated,omitempty"`
}

// AggregateRequest describes a GROUP BY rollup over one table.
// Aggregations maps column name to aggregate function; Filters holds
// equality predicates applied before grouping.
type AggregateRequest struct {
	Table        string                 `json:"table"`
	GroupBy      []string               `json:"group_by"`
	Aggregations map[string]string      `json:"aggregations"`
	Filters      map[string]interface{} `json:"filters,omitempty"`
}

// PivotRequest describes a pivot: Rows stay as rows, distinct values of
// Columns become columns, Values is aggregated with AggFunc into the cells.
type PivotRequest struct {
	Table   string   `json:"table"`
	Rows    []string `json:"rows"`
	Columns string   `json:"columns"`
	Values  string   `json:"values"`
	AggFunc string   `json:"aggfunc,omitempty"`
}

// TopNRequest ranks groups by an aggregated metric and keeps the first N.
type TopNRequest struct {
	Table   string `json:"table"`
	GroupBy string `json:"group_by"`
	Metric  string `json:"metric"`
	AggFunc string `json:"aggfunc,omitempty"`
	N       int    `json:"n,omitempty"`
	Order   string `json:"order,omitempty"`
}

// WindowRequest applies one window function over a table.
// Target is the value column for lag/lead/running_sum.
type WindowRequest struct {
	Table       string `json:"table"`
	Function    string `json:"function"`
	PartitionBy string `json:"partition_by,omitempty"`
	OrderBy     string `json:"order_by"`
	Target      string `json:"target,omitempty"`
}

// JoinRequest joins two loaded tables on equality of the named key columns.
type JoinRequest struct {
	Left  string   `json:"left"`
	Right string   `json:"right"`
	On    []string `json:"on"`
	How   string   `json:"how,omitempty"`
}

// TimeSeriesRequest buckets a date column and aggregates a value column
// per bucket (count, sum, avg, min, max).
type TimeSeriesRequest struct {
	Table       string                 `json:"table"`
	DateColumn  string                 `json:"date_column"`
	ValueColumn string                 `json:"value_column"`
	Granularity string                 `json:"granularity,omitempty"`
	Filters     map[string]interface{} `json:"filters,omitempty"`
}

// ExportRequest runs a query and writes the result set to a file.
type ExportRequest struct {
	Query    string `json:"query"`
	Format   string `json:"format,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ExportResult reports where an export landed.
type ExportResult struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	RowCount int64  `json:"row_count"`
}
