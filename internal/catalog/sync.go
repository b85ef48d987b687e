package catalog

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datamesa/datamesa/internal/domain"
)

// historyLimit bounds the in-memory refresh history kept for status reporting.
const historyLimit = 20

// Synchronizer reconciles the discovered file set against the known catalog.
// Only one pass runs at a time; scheduled and manual refreshes contend on
// the same mutex. Read accessors use a separate RWMutex so listings never
// wait for a full pass.
type Synchronizer struct {
	disc   *Discoverer
	loader domain.TableLoader
	views  *ViewBuilder
	logger *slog.Logger

	syncMu sync.Mutex // serializes whole passes

	mu      sync.RWMutex
	records map[string]domain.FileRecord // path -> record
	owners  map[string]string            // table -> owning path
	history []domain.RefreshOutcome      // newest first
}

// NewSynchronizer creates a Synchronizer. views may be nil when no derived
// views are configured.
func NewSynchronizer(disc *Discoverer, loader domain.TableLoader, views *ViewBuilder, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		disc:    disc,
		loader:  loader,
		views:   views,
		logger:  logger,
		records: make(map[string]domain.FileRecord),
		owners:  make(map[string]string),
	}
}

// Refresh runs one synchronization pass: discover, load new and changed
// files, drop tables for deleted files, rebuild derived views. Per-file
// failures are collected in the outcome and never abort the pass.
func (s *Synchronizer) Refresh(ctx context.Context) (*domain.RefreshOutcome, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	start := time.Now()
	outcome := &domain.RefreshOutcome{
		ID:        uuid.NewString(),
		StartedAt: start,
	}

	files, err := s.disc.Discover()
	if err != nil {
		// Discovery trouble degrades to an empty file set rather than failing
		// the pass.
		s.logger.Warn("discovery failed, treating data directory as empty",
			"root", s.disc.Root(), "error", err)
		files = nil
	}
	outcome.ScannedFiles = len(files)

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		seen[f.Path] = true
		s.syncFile(ctx, f, outcome)
	}

	s.dropMissing(ctx, seen, outcome)

	if s.views != nil {
		s.views.Apply(ctx, s.tableSet())
	}

	s.mu.Lock()
	outcome.TableCount = len(s.owners)
	outcome.DurationMs = time.Since(start).Milliseconds()
	sort.Strings(outcome.NewFiles)
	sort.Strings(outcome.UpdatedFiles)
	sort.Strings(outcome.DeletedFiles)
	s.history = append([]domain.RefreshOutcome{*outcome}, s.history...)
	if len(s.history) > historyLimit {
		s.history = s.history[:historyLimit]
	}
	s.mu.Unlock()

	s.logger.Info("refresh complete",
		"refresh_id", outcome.ID,
		"scanned", outcome.ScannedFiles,
		"new", len(outcome.NewFiles),
		"updated", len(outcome.UpdatedFiles),
		"deleted", len(outcome.DeletedFiles),
		"failed", len(outcome.Failed),
		"tables", outcome.TableCount,
		"duration_ms", outcome.DurationMs,
	)
	return outcome, nil
}

// syncFile decides whether one discovered file is new, changed, or unchanged
// and applies the load when needed.
func (s *Synchronizer) syncFile(ctx context.Context, f SourceFile, outcome *domain.RefreshOutcome) {
	table := TableNameForPath(f.Path)

	s.mu.RLock()
	owner, claimed := s.owners[table]
	rec, known := s.records[f.Path]
	s.mu.RUnlock()

	// Two paths normalizing to the same table name never merge: the first
	// claimant (sorted path order) owns the name, later ones are rejected.
	if claimed && owner != f.Path {
		outcome.Failed = append(outcome.Failed, domain.LoadFailure{
			Path:  f.Path,
			Table: table,
			Error: "table name already claimed by " + owner,
		})
		return
	}

	if known && rec.SameSource(f.Size, f.ModTime) {
		return
	}

	rows, err := s.loader.Load(ctx, f.Path, table)
	if err != nil {
		// A failed reload keeps the previous table and record.
		s.logger.Warn("load failed", "path", f.Path, "table", table, "error", err)
		outcome.Failed = append(outcome.Failed, domain.LoadFailure{
			Path:  f.Path,
			Table: table,
			Error: err.Error(),
		})
		return
	}

	s.mu.Lock()
	s.records[f.Path] = domain.FileRecord{
		Path:     f.Path,
		Table:    table,
		Size:     f.Size,
		ModTime:  f.ModTime,
		RowCount: rows,
		LoadedAt: time.Now(),
	}
	s.owners[table] = f.Path
	s.mu.Unlock()

	if known {
		outcome.UpdatedFiles = append(outcome.UpdatedFiles, f.Path)
	} else {
		outcome.NewFiles = append(outcome.NewFiles, f.Path)
	}
}

// dropMissing removes tables whose source files are no longer discovered.
// A failed drop keeps the record so the next pass retries it.
func (s *Synchronizer) dropMissing(ctx context.Context, seen map[string]bool, outcome *domain.RefreshOutcome) {
	s.mu.RLock()
	var gone []domain.FileRecord
	for path, rec := range s.records {
		if !seen[path] {
			gone = append(gone, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(gone, func(i, j int) bool { return gone[i].Path < gone[j].Path })

	for _, rec := range gone {
		if err := s.loader.Drop(ctx, rec.Table); err != nil {
			s.logger.Warn("drop table failed", "table", rec.Table, "path", rec.Path, "error", err)
			outcome.Failed = append(outcome.Failed, domain.LoadFailure{
				Path:  rec.Path,
				Table: rec.Table,
				Error: "drop: " + err.Error(),
			})
			continue
		}
		s.mu.Lock()
		delete(s.records, rec.Path)
		delete(s.owners, rec.Table)
		s.mu.Unlock()
		outcome.DeletedFiles = append(outcome.DeletedFiles, rec.Path)
	}
}

// tableSet snapshots the current base table names.
func (s *Synchronizer) tableSet() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]bool, len(s.owners))
	for t := range s.owners {
		set[t] = true
	}
	return set
}

// Records returns a snapshot of all file records, sorted by path.
func (s *Synchronizer) Records() []domain.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FileRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Tables returns a listing snapshot of all loaded tables, sorted by name.
func (s *Synchronizer) Tables() []domain.TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TableInfo, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, domain.TableInfo{
			Name:       rec.Table,
			RowCount:   rec.RowCount,
			SourcePath: rec.Path,
			LoadedAt:   rec.LoadedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasTable reports whether a base table with the given name is loaded.
func (s *Synchronizer) HasTable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[name]
	return ok
}

// TableInfo returns the listing entry for one base table.
func (s *Synchronizer) TableInfo(name string) (domain.TableInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.owners[name]
	if !ok {
		return domain.TableInfo{}, false
	}
	rec := s.records[path]
	return domain.TableInfo{
		Name:       rec.Table,
		RowCount:   rec.RowCount,
		SourcePath: rec.Path,
		LoadedAt:   rec.LoadedAt,
	}, true
}

// TableCount returns the number of loaded base tables.
func (s *Synchronizer) TableCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners)
}

// History returns the retained refresh outcomes, newest first.
func (s *Synchronizer) History() []domain.RefreshOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RefreshOutcome, len(s.history))
	copy(out, s.history)
	return out
}

// Last returns the most recent refresh outcome, or nil before the first pass.
func (s *Synchronizer) Last() *domain.RefreshOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return nil
	}
	last := s.history[0]
	return &last
}
