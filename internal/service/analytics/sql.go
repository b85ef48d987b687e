package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datamesa/datamesa/internal/ddl"
	"github.com/datamesa/datamesa/internal/domain"
)

// aggFuncs is the allow-list of aggregation functions. Anything outside it
// is a validation error before any SQL is issued.
var aggFuncs = map[string]string{
	"count":          "COUNT(%s)",
	"count_distinct": "COUNT(DISTINCT %s)",
	"sum":            "SUM(%s)",
	"avg":            "AVG(%s)",
	"min":            "MIN(%s)",
	"max":            "MAX(%s)",
	"median":         "MEDIAN(%s)",
	"stddev":         "STDDEV(%s)",
}

// aggExpr renders fn(column), both validated.
func aggExpr(fn, column string) (string, error) {
	tmpl, ok := aggFuncs[strings.ToLower(strings.TrimSpace(fn))]
	if !ok {
		return "", domain.ErrValidation("unknown aggregation function %q", fn)
	}
	if err := ddl.ValidateIdentifier(column); err != nil {
		return "", domain.ErrValidation("aggregation column: %s", err.Error())
	}
	return fmt.Sprintf(tmpl, ddl.QuoteIdentifier(column)), nil
}

// filterClause renders equality filters as a WHERE clause with ? parameters.
// Columns are processed in sorted order so the statement is deterministic;
// nil values become IS NULL.
func filterClause(filters map[string]interface{}) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	cols := make([]string, 0, len(filters))
	for c := range filters {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var preds []string
	var args []interface{}
	for _, c := range cols {
		if err := ddl.ValidateIdentifier(c); err != nil {
			return "", nil, domain.ErrValidation("filter column: %s", err.Error())
		}
		if filters[c] == nil {
			preds = append(preds, ddl.QuoteIdentifier(c)+" IS NULL")
			continue
		}
		preds = append(preds, ddl.QuoteIdentifier(c)+" = ?")
		args = append(args, filters[c])
	}
	return " WHERE " + strings.Join(preds, " AND "), args, nil
}

// aggregateSQL compiles an AggregateRequest into a GROUP BY statement.
// An empty aggregation set degrades to a plain COUNT(*) per group.
func aggregateSQL(req domain.AggregateRequest) (string, []interface{}, error) {
	if err := ddl.ValidateIdentifier(req.Table); err != nil {
		return "", nil, domain.ErrValidation("table: %s", err.Error())
	}
	if len(req.GroupBy) == 0 {
		return "", nil, domain.ErrValidation("group_by is required for aggregation")
	}

	var groupCols []string
	for _, c := range req.GroupBy {
		if err := ddl.ValidateIdentifier(c); err != nil {
			return "", nil, domain.ErrValidation("group_by column: %s", err.Error())
		}
		groupCols = append(groupCols, ddl.QuoteIdentifier(c))
	}

	selects := append([]string{}, groupCols...)
	if len(req.Aggregations) == 0 {
		selects = append(selects, `COUNT(*) AS "count"`)
	} else {
		cols := make([]string, 0, len(req.Aggregations))
		for c := range req.Aggregations {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			fn := req.Aggregations[c]
			expr, err := aggExpr(fn, c)
			if err != nil {
				return "", nil, err
			}
			alias := fmt.Sprintf("%s_%s", c, strings.ToLower(strings.TrimSpace(fn)))
			selects = append(selects, fmt.Sprintf("%s AS %s", expr, ddl.QuoteIdentifier(alias)))
		}
	}

	where, args, err := filterClause(req.Filters)
	if err != nil {
		return "", nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s%s GROUP BY %s ORDER BY %s",
		strings.Join(selects, ", "),
		ddl.QuoteIdentifier(req.Table),
		where,
		strings.Join(groupCols, ", "),
		strings.Join(groupCols, ", "))
	return stmt, args, nil
}

// pivotSQL compiles a PivotRequest into a native PIVOT statement.
func pivotSQL(req domain.PivotRequest) (string, error) {
	if err := ddl.ValidateIdentifier(req.Table); err != nil {
		return "", domain.ErrValidation("table: %s", err.Error())
	}
	if len(req.Rows) == 0 {
		return "", domain.ErrValidation("rows is required for pivot")
	}
	if req.Columns == "" {
		return "", domain.ErrValidation("columns is required for pivot")
	}
	if req.Values == "" {
		return "", domain.ErrValidation("values is required for pivot")
	}
	if err := ddl.ValidateIdentifier(req.Columns); err != nil {
		return "", domain.ErrValidation("columns: %s", err.Error())
	}

	fn := req.AggFunc
	if fn == "" {
		fn = "sum"
	}
	using, err := aggExpr(fn, req.Values)
	if err != nil {
		return "", err
	}

	var rowCols []string
	for _, c := range req.Rows {
		if err := ddl.ValidateIdentifier(c); err != nil {
			return "", domain.ErrValidation("rows column: %s", err.Error())
		}
		rowCols = append(rowCols, ddl.QuoteIdentifier(c))
	}

	stmt := fmt.Sprintf("PIVOT %s ON %s USING %s GROUP BY %s ORDER BY %s",
		ddl.QuoteIdentifier(req.Table),
		ddl.QuoteIdentifier(req.Columns),
		using,
		strings.Join(rowCols, ", "),
		strings.Join(rowCols, ", "))
	return stmt, nil
}

// topNSQL compiles a TopNRequest: groups ranked by an aggregated metric.
func topNSQL(req domain.TopNRequest) (string, error) {
	if err := ddl.ValidateIdentifier(req.Table); err != nil {
		return "", domain.ErrValidation("table: %s", err.Error())
	}
	if err := ddl.ValidateIdentifier(req.GroupBy); err != nil {
		return "", domain.ErrValidation("group_by: %s", err.Error())
	}

	fn := req.AggFunc
	if fn == "" {
		fn = "sum"
	}
	metric, err := aggExpr(fn, req.Metric)
	if err != nil {
		return "", err
	}

	n := req.N
	if n <= 0 {
		n = 10
	}
	dir, err := sortDirection(req.Order)
	if err != nil {
		return "", err
	}

	stmt := fmt.Sprintf(`SELECT %s, %s AS "value" FROM %s GROUP BY %s ORDER BY "value" %s LIMIT %d`,
		ddl.QuoteIdentifier(req.GroupBy),
		metric,
		ddl.QuoteIdentifier(req.Table),
		ddl.QuoteIdentifier(req.GroupBy),
		dir,
		n)
	return stmt, nil
}

// sortDirection normalizes asc/desc, defaulting to DESC.
func sortDirection(order string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		return "DESC", nil
	case "asc":
		return "ASC", nil
	default:
		return "", domain.ErrValidation("order must be asc or desc, got %q", order)
	}
}

// windowFuncs maps the fixed window function set to render templates.
// Functions marked with a target use the value column.
var windowFuncs = map[string]struct {
	expr        string
	needsTarget bool
}{
	"row_number":  {expr: "ROW_NUMBER()"},
	"rank":        {expr: "RANK()"},
	"dense_rank":  {expr: "DENSE_RANK()"},
	"lag":         {expr: "LAG(%s)", needsTarget: true},
	"lead":        {expr: "LEAD(%s)", needsTarget: true},
	"running_sum": {expr: "SUM(%s)", needsTarget: true},
}

// windowSQL compiles a WindowRequest into a SELECT with one window column.
func windowSQL(req domain.WindowRequest) (string, error) {
	if err := ddl.ValidateIdentifier(req.Table); err != nil {
		return "", domain.ErrValidation("table: %s", err.Error())
	}
	fnName := strings.ToLower(strings.TrimSpace(req.Function))
	fn, ok := windowFuncs[fnName]
	if !ok {
		return "", domain.ErrValidation("unknown window function %q", req.Function)
	}
	if req.OrderBy == "" {
		return "", domain.ErrValidation("order_by is required for window functions")
	}
	if err := ddl.ValidateIdentifier(req.OrderBy); err != nil {
		return "", domain.ErrValidation("order_by: %s", err.Error())
	}

	expr := fn.expr
	if fn.needsTarget {
		if req.Target == "" {
			return "", domain.ErrValidation("target column is required for %s", fnName)
		}
		if err := ddl.ValidateIdentifier(req.Target); err != nil {
			return "", domain.ErrValidation("target: %s", err.Error())
		}
		expr = fmt.Sprintf(fn.expr, ddl.QuoteIdentifier(req.Target))
	}

	var over []string
	if req.PartitionBy != "" {
		if err := ddl.ValidateIdentifier(req.PartitionBy); err != nil {
			return "", domain.ErrValidation("partition_by: %s", err.Error())
		}
		over = append(over, "PARTITION BY "+ddl.QuoteIdentifier(req.PartitionBy))
	}
	over = append(over, "ORDER BY "+ddl.QuoteIdentifier(req.OrderBy))

	orderCols := []string{}
	if req.PartitionBy != "" {
		orderCols = append(orderCols, ddl.QuoteIdentifier(req.PartitionBy))
	}
	orderCols = append(orderCols, ddl.QuoteIdentifier(req.OrderBy))

	stmt := fmt.Sprintf("SELECT *, %s OVER (%s) AS %s FROM %s ORDER BY %s",
		expr,
		strings.Join(over, " "),
		ddl.QuoteIdentifier(fnName),
		ddl.QuoteIdentifier(req.Table),
		strings.Join(orderCols, ", "))
	return stmt, nil
}

// joinKinds maps the join kind parameter to SQL join operators.
var joinKinds = map[string]string{
	"inner": "INNER JOIN",
	"left":  "LEFT JOIN",
	"right": "RIGHT JOIN",
	"full":  "FULL JOIN",
}

// joinSQL compiles a JoinRequest into a USING join, ordered by the key
// columns so results are stable.
func joinSQL(req domain.JoinRequest) (string, error) {
	if err := ddl.ValidateIdentifier(req.Left); err != nil {
		return "", domain.ErrValidation("left table: %s", err.Error())
	}
	if err := ddl.ValidateIdentifier(req.Right); err != nil {
		return "", domain.ErrValidation("right table: %s", err.Error())
	}
	if len(req.On) == 0 {
		return "", domain.ErrValidation("on is required: name the join key column(s)")
	}

	how := strings.ToLower(strings.TrimSpace(req.How))
	if how == "" {
		how = "inner"
	}
	op, ok := joinKinds[how]
	if !ok {
		return "", domain.ErrValidation("how must be inner, left, right, or full, got %q", req.How)
	}

	var keys []string
	for _, c := range req.On {
		if err := ddl.ValidateIdentifier(c); err != nil {
			return "", domain.ErrValidation("join key: %s", err.Error())
		}
		keys = append(keys, ddl.QuoteIdentifier(c))
	}

	stmt := fmt.Sprintf("SELECT * FROM %s %s %s USING (%s) ORDER BY %s",
		ddl.QuoteIdentifier(req.Left),
		op,
		ddl.QuoteIdentifier(req.Right),
		strings.Join(keys, ", "),
		strings.Join(keys, ", "))
	return stmt, nil
}

// granularities is the allow-list for date_trunc buckets.
var granularities = map[string]bool{
	"day":     true,
	"week":    true,
	"month":   true,
	"quarter": true,
	"year":    true,
}

// timeSeriesSQL compiles a TimeSeriesRequest into a date_trunc rollup with
// count/sum/avg/min/max per bucket.
func timeSeriesSQL(req domain.TimeSeriesRequest) (string, []interface{}, error) {
	if err := ddl.ValidateIdentifier(req.Table); err != nil {
		return "", nil, domain.ErrValidation("table: %s", err.Error())
	}
	if err := ddl.ValidateIdentifier(req.DateColumn); err != nil {
		return "", nil, domain.ErrValidation("date_column: %s", err.Error())
	}
	if err := ddl.ValidateIdentifier(req.ValueColumn); err != nil {
		return "", nil, domain.ErrValidation("value_column: %s", err.Error())
	}

	gran := strings.ToLower(strings.TrimSpace(req.Granularity))
	if gran == "" {
		gran = "month"
	}
	if !granularities[gran] {
		return "", nil, domain.ErrValidation("granularity must be day, week, month, quarter, or year, got %q", req.Granularity)
	}

	where, args, err := filterClause(req.Filters)
	if err != nil {
		return "", nil, err
	}

	val := ddl.QuoteIdentifier(req.ValueColumn)
	stmt := fmt.Sprintf(
		`SELECT date_trunc('%s', %s) AS "bucket", COUNT(*) AS "count", SUM(%s) AS "sum", AVG(%s) AS "avg", MIN(%s) AS "min", MAX(%s) AS "max" FROM %s%s GROUP BY "bucket" ORDER BY "bucket"`,
		gran,
		ddl.QuoteIdentifier(req.DateColumn),
		val, val, val, val,
		ddl.QuoteIdentifier(req.Table),
		where)
	return stmt, args, nil
}
