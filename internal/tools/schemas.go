package tools

// JSON schemas for tool arguments. Served verbatim to MCP clients and on
// GET /v1/tools; keep them in sync with the request types in domain.

const emptySchema = `{
  "type": "object",
  "properties": {}
}`

const describeTableSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Name of the table or view"}
  },
  "required": ["table"]
}`

const executeQuerySchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "SQL statement to execute"}
  },
  "required": ["query"]
}`

const aggregateDataSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table or view to aggregate"},
    "group_by": {"type": "array", "items": {"type": "string"}, "description": "Columns to group by; at least one is required"},
    "aggregations": {"type": "object", "additionalProperties": {"type": "string"}, "description": "Map of column to function: count, count_distinct, sum, avg, min, max, median, stddev. Defaults to a row count."},
    "filters": {"type": "object", "description": "Equality filters applied before grouping; null matches NULL"}
  },
  "required": ["table", "group_by"]
}`

const pivotDataSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table or view to pivot"},
    "rows": {"type": "array", "items": {"type": "string"}, "description": "Columns kept as rows"},
    "columns": {"type": "string", "description": "Column whose distinct values become result columns"},
    "values": {"type": "string", "description": "Column aggregated into the cells"},
    "aggfunc": {"type": "string", "description": "Aggregate function for the cells; defaults to sum"}
  },
  "required": ["table", "rows", "columns", "values"]
}`

const topNSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table or view to rank"},
    "group_by": {"type": "string", "description": "Column whose groups are ranked"},
    "metric": {"type": "string", "description": "Column the metric is computed over"},
    "aggfunc": {"type": "string", "description": "Aggregate function for the metric; defaults to sum"},
    "n": {"type": "integer", "description": "Number of groups to keep; defaults to 10"},
    "order": {"type": "string", "enum": ["asc", "desc"], "description": "Ranking direction; defaults to desc"}
  },
  "required": ["table", "group_by", "metric"]
}`

const windowSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table or view the window runs over"},
    "function": {"type": "string", "enum": ["row_number", "rank", "dense_rank", "lag", "lead", "running_sum"], "description": "Window function to apply"},
    "partition_by": {"type": "string", "description": "Optional column that restarts the window per partition"},
    "order_by": {"type": "string", "description": "Column defining window order"},
    "target": {"type": "string", "description": "Value column; required for lag, lead, and running_sum"}
  },
  "required": ["table", "function", "order_by"]
}`

const joinSchema = `{
  "type": "object",
  "properties": {
    "left": {"type": "string", "description": "Left table"},
    "right": {"type": "string", "description": "Right table"},
    "on": {"type": "array", "items": {"type": "string"}, "description": "Key columns joined by equality; must exist in both tables"},
    "how": {"type": "string", "enum": ["inner", "left", "right", "full"], "description": "Join kind; defaults to inner"}
  },
  "required": ["left", "right", "on"]
}`

const timeSeriesSchema = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table or view holding the series"},
    "date_column": {"type": "string", "description": "Date or timestamp column to bucket"},
    "value_column": {"type": "string", "description": "Numeric column aggregated per bucket"},
    "granularity": {"type": "string", "enum": ["day", "week", "month", "quarter", "year"], "description": "Bucket size; defaults to month"},
    "filters": {"type": "object", "description": "Equality filters applied before bucketing"}
  },
  "required": ["table", "date_column", "value_column"]
}`

const exportSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "SELECT statement whose full result is written out"},
    "format": {"type": "string", "enum": ["csv", "parquet", "json"], "description": "Output format; defaults to csv"},
    "filename": {"type": "string", "description": "Output file name inside the export directory; generated when omitted"}
  },
  "required": ["query"]
}`

const explainSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "SQL statement to explain"},
    "analyze": {"type": "boolean", "description": "Execute the statement and include timings"}
  },
  "required": ["query"]
}`
