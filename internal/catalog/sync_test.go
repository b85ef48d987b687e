package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader records load and drop calls and can be told to fail per path
// or per table.
type fakeLoader struct {
	mu       sync.Mutex
	loads    []string // paths in load order
	drops    []string // tables in drop order
	rows     int64
	failLoad map[string]string // path -> error message
	failDrop map[string]string // table -> error message
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		rows:     3,
		failLoad: make(map[string]string),
		failDrop: make(map[string]string),
	}
}

func (f *fakeLoader) Load(_ context.Context, path, table string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.failLoad[path]; ok {
		return 0, fmt.Errorf("%s", msg)
	}
	f.loads = append(f.loads, path)
	return f.rows, nil
}

func (f *fakeLoader) Drop(_ context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.failDrop[table]; ok {
		return fmt.Errorf("%s", msg)
	}
	f.drops = append(f.drops, table)
	return nil
}

func (f *fakeLoader) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func newTestSync(t *testing.T, root string) (*Synchronizer, *fakeLoader) {
	t.Helper()
	loader := newFakeLoader()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSynchronizer(NewDiscoverer(root), loader, nil, logger)
	return s, loader
}

func TestRefreshLoadsNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "orders.csv"), "id\n1\n")
	writeFile(t, filepath.Join(root, "nested", "users.tsv"), "id\n1\n")
	s, loader := newTestSync(t, root)

	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.ScannedFiles)
	assert.Len(t, outcome.NewFiles, 2)
	assert.Empty(t, outcome.UpdatedFiles)
	assert.Empty(t, outcome.DeletedFiles)
	assert.Empty(t, outcome.Failed)
	assert.Equal(t, 2, outcome.TableCount)
	assert.True(t, outcome.Changed())
	assert.NotEmpty(t, outcome.ID)
	assert.Equal(t, 2, loader.loadCount())

	tables := s.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "orders", tables[0].Name)
	assert.Equal(t, "users", tables[1].Name)
	assert.Equal(t, int64(3), tables[0].RowCount)
	assert.True(t, s.HasTable("orders"))
	assert.False(t, s.HasTable("missing"))
}

func TestRefreshIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "orders.csv"), "id\n1\n")
	writeFile(t, filepath.Join(root, "users.csv"), "id\n1\n")
	s, loader := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, loader.loadCount())

	// A second pass over an unchanged directory does nothing.
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Changed())
	assert.Empty(t, outcome.Failed)
	assert.Equal(t, 2, outcome.TableCount)
	assert.Equal(t, 2, loader.loadCount(), "unchanged files must not reload")
}

func TestRefreshDetectsModifiedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "orders.csv")
	writeFile(t, path, "id\n1\n")
	s, loader := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	writeFile(t, path, "id\n1\n2\n3\n")
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.NewFiles)
	assert.Equal(t, []string{mustAbs(t, path)}, outcome.UpdatedFiles)
	assert.Equal(t, 1, outcome.TableCount)
	assert.Equal(t, 2, loader.loadCount())
}

func TestRefreshDropsDeletedFile(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.csv")
	gone := filepath.Join(root, "gone.csv")
	writeFile(t, keep, "id\n1\n")
	writeFile(t, gone, "id\n1\n")
	s, loader := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, s.HasTable("gone"))

	require.NoError(t, os.Remove(gone))
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{mustAbs(t, gone)}, outcome.DeletedFiles)
	assert.Equal(t, 1, outcome.TableCount)
	assert.Equal(t, []string{"gone"}, loader.drops)
	assert.False(t, s.HasTable("gone"))
	assert.True(t, s.HasTable("keep"))
}

func TestRefreshIsolatesLoadFailures(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.csv")
	bad := filepath.Join(root, "bad.csv")
	writeFile(t, good, "id\n1\n")
	writeFile(t, bad, "id\n1\n")
	s, loader := newTestSync(t, root)
	loader.failLoad[mustAbs(t, bad)] = "malformed header"

	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{mustAbs(t, good)}, outcome.NewFiles)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, mustAbs(t, bad), outcome.Failed[0].Path)
	assert.Equal(t, "bad", outcome.Failed[0].Table)
	assert.Contains(t, outcome.Failed[0].Error, "malformed header")
	assert.Equal(t, 1, outcome.TableCount)
	assert.True(t, s.HasTable("good"))
	assert.False(t, s.HasTable("bad"))
}

func TestRefreshKeepsPriorTableOnFailedReload(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "orders.csv")
	writeFile(t, path, "id\n1\n")
	s, loader := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	recBefore := s.Records()
	require.Len(t, recBefore, 1)

	// The file changes but its reload fails: the catalog keeps serving the
	// previous version and the fingerprint is not advanced.
	writeFile(t, path, "id\n1\n2\n")
	loader.failLoad[mustAbs(t, path)] = "boom"
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, outcome.Failed, 1)
	assert.Empty(t, outcome.UpdatedFiles)
	assert.True(t, s.HasTable("orders"))
	recAfter := s.Records()
	require.Len(t, recAfter, 1)
	assert.Equal(t, recBefore[0].ModTime, recAfter[0].ModTime, "failed reload must not advance the fingerprint")

	// Once the load succeeds again the update goes through.
	delete(loader.failLoad, mustAbs(t, path))
	outcome, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{mustAbs(t, path)}, outcome.UpdatedFiles)
}

func TestRefreshRejectsNameCollision(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a-b.csv")
	second := filepath.Join(root, "a_b.csv")
	writeFile(t, first, "id\n1\n")
	writeFile(t, second, "id\n1\n")
	s, _ := newTestSync(t, root)

	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	// Both normalize to a_b; the first path in sort order wins, the other
	// is reported, and the winner's table is never overwritten.
	assert.Equal(t, []string{mustAbs(t, first)}, outcome.NewFiles)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, mustAbs(t, second), outcome.Failed[0].Path)
	assert.Equal(t, "a_b", outcome.Failed[0].Table)
	assert.Contains(t, outcome.Failed[0].Error, "already claimed")
	assert.Equal(t, 1, outcome.TableCount)

	recs := s.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, mustAbs(t, first), recs[0].Path)
}

func TestRefreshRetriesFailedDrop(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "orders.csv")
	writeFile(t, path, "id\n1\n")
	s, loader := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	loader.failDrop["orders"] = "table busy"
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)

	// The record survives a failed drop so the next pass retries it.
	require.Len(t, outcome.Failed, 1)
	assert.Empty(t, outcome.DeletedFiles)
	assert.True(t, s.HasTable("orders"))

	delete(loader.failDrop, "orders")
	outcome, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{mustAbs(t, path)}, outcome.DeletedFiles)
	assert.False(t, s.HasTable("orders"))
}

func TestRefreshMissingRootYieldsEmptyCatalog(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-created-yet")
	s, loader := newTestSync(t, root)

	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ScannedFiles)
	assert.False(t, outcome.Changed())
	assert.Equal(t, 0, outcome.TableCount)
	assert.Equal(t, 0, loader.loadCount())
}

func TestRefreshDropsEverythingWhenRootVanishes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "orders.csv"), "id\n1\n")
	s, _ := newTestSync(t, root)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, s.TableCount())

	require.NoError(t, os.RemoveAll(root))
	outcome, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, outcome.DeletedFiles, 1)
	assert.Equal(t, 0, outcome.TableCount)
}

func TestRefreshHistory(t *testing.T) {
	root := t.TempDir()
	s, _ := newTestSync(t, root)

	require.Nil(t, s.Last())

	var lastID string
	for i := 0; i < historyLimit+5; i++ {
		outcome, err := s.Refresh(context.Background())
		require.NoError(t, err)
		lastID = outcome.ID
	}

	history := s.History()
	assert.Len(t, history, historyLimit)
	assert.Equal(t, lastID, history[0].ID, "history is newest first")
	require.NotNil(t, s.Last())
	assert.Equal(t, lastID, s.Last().ID)
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
