package domain

import "time"

// FileRecord tracks one source file that has been loaded into a table.
// Size and ModTime form the fingerprint used to detect changed files.
type FileRecord struct {
	Path     string    `json:"path"`
	Table    string    `json:"table"`
	Size     int64     `json:"size_bytes"`
	ModTime  time.Time `json:"modified_at"`
	RowCount int64     `json:"row_count"`
	LoadedAt time.Time `json:"loaded_at"`
}

// SameSource reports whether the on-disk fingerprint matches the record.
func (r FileRecord) SameSource(size int64, modTime time.Time) bool {
	return r.Size == size && r.ModTime.Equal(modTime)
}

// LoadFailure records a single file that could not be loaded during a refresh.
type LoadFailure struct {
	Path  string `json:"path"`
	Table string `json:"table,omitempty"`
	Error string `json:"error"`
}

// RefreshOutcome summarizes one synchronization pass over the data directory.
// The file sets are disjoint and name source paths, not table names.
type RefreshOutcome struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMs   int64         `json:"duration_ms"`
	ScannedFiles int           `json:"scanned_files"`
	NewFiles     []string      `json:"new_files"`
	UpdatedFiles []string      `json:"updated_files"`
	DeletedFiles []string      `json:"deleted_files"`
	Failed       []LoadFailure `json:"failed,omitempty"`
	TableCount   int           `json:"table_count"`
}

// Changed reports whether the pass altered the catalog in any way.
func (o *RefreshOutcome) Changed() bool {
	return len(o.NewFiles) > 0 || len(o.UpdatedFiles) > 0 || len(o.DeletedFiles) > 0
}

// ViewDefinition describes a derived view maintained on top of loaded tables.
// The view is only (re)created when every table in Requires is present.
type ViewDefinition struct {
	Name     string   `yaml:"name" json:"name"`
	Requires []string `yaml:"requires" json:"requires"`
	Query    string   `yaml:"query" json:"query"`
}

// ColumnInfo describes one column of a loaded table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableInfo summarizes a loaded table for listings.
type TableInfo struct {
	Name       string    `json:"name"`
	RowCount   int64     `json:"row_count"`
	SourcePath string    `json:"source_path"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// TableDetail is the full description of a table: schema plus a small sample.
type TableDetail struct {
	Name     string       `json:"name"`
	Columns  []ColumnInfo `json:"columns"`
	RowCount int64        `json:"row_count"`
	Sample   *QueryResult `json:"sample,omitempty"`
}

// CatalogStatus reports the refresh configuration and recent activity.
type CatalogStatus struct {
	AutoRefresh     bool             `json:"auto_refresh"`
	RefreshInterval string           `json:"refresh_interval"`
	TableCount      int              `json:"table_count"`
	ViewCount       int              `json:"view_count"`
	LastRefresh     *RefreshOutcome  `json:"last_refresh,omitempty"`
	History         []RefreshOutcome `json:"history,omitempty"`
	RecentCalls     []ToolCall       `json:"recent_calls,omitempty"`
}

// ToolCall is one recorded invocation of a named tool.
type ToolCall struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Args       string    `json:"args"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tool call statuses.
const (
	CallStatusOK    = "OK"
	CallStatusError = "ERROR"
)
