// Package catalog keeps the set of loaded tables synchronized with the
// files on disk: discovery, loading, reconciliation, derived views, and
// the background refresh schedule.
package catalog

import (
	"path/filepath"
	"strings"
)

// supported source formats by file extension.
var formatByExt = map[string]string{
	".csv":     "csv",
	".tsv":     "tsv",
	".parquet": "parquet",
}

// FormatForPath returns the source format for a path based on its extension.
func FormatForPath(path string) (string, bool) {
	f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// TableNameForPath derives the table name from a file path's base name.
// The mapping is a pure function of the base name: lower-cased, spaces and
// hyphens become underscores, every other non-alphanumeric character is
// stripped. Names that end up empty or digit-leading get a "t_" prefix so
// the result is always a valid SQL identifier.
//
// Two distinct paths can still normalize to the same name ("a.b.csv" and
// "ab.csv"); the synchronizer rejects the later claimant rather than
// silently merging them.
func TableNameForPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteByte('_')
		}
	}

	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}
	if len(name) > 128 {
		name = name[:128]
	}
	return name
}
