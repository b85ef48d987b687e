package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SourceFile is one discovered data file with its change-detection fingerprint.
type SourceFile struct {
	Path    string
	Format  string
	Size    int64
	ModTime time.Time
}

// Discoverer scans a root directory for loadable data files.
type Discoverer struct {
	root string
}

// NewDiscoverer creates a Discoverer over the given root directory.
func NewDiscoverer(root string) *Discoverer {
	return &Discoverer{root: root}
}

// Root returns the scanned directory.
func (d *Discoverer) Root() string { return d.root }

// Discover walks the root recursively and returns every file whose extension
// is a supported format, sorted by path. A root that does not exist yet is
// not an error: it yields an empty set.
func (d *Discoverer) Discover() ([]SourceFile, error) {
	if _, err := os.Stat(d.root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SourceFile
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		format, ok := FormatForPath(path)
		if !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		files = append(files, SourceFile{
			Path:    abs,
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
