package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/datamesa/datamesa/internal/ddl"
	"github.com/datamesa/datamesa/internal/domain"
	"github.com/datamesa/datamesa/internal/engine"
)

// viewsFile is the on-disk shape of the derived view definitions.
type viewsFile struct {
	Views []domain.ViewDefinition `yaml:"views"`
}

// LoadViewDefinitions reads derived view definitions from a YAML file.
// A missing file means no derived views. Definitions with names that fail
// identifier validation are rejected at load time: the file is operator
// configuration and a bad name there is a deployment error.
func LoadViewDefinitions(path string) ([]domain.ViewDefinition, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read views file: %w", err)
	}

	var f viewsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse views file: %w", err)
	}
	for _, v := range f.Views {
		if err := ddl.ValidateIdentifier(v.Name); err != nil {
			return nil, fmt.Errorf("view %q: %w", v.Name, err)
		}
		if v.Query == "" {
			return nil, fmt.Errorf("view %q: query is required", v.Name)
		}
	}
	return f.Views, nil
}

// ViewBuilder recreates derived views after every synchronization pass.
// A view is created only when all tables it requires are present; otherwise
// it is dropped so callers never see a view with missing dependencies.
type ViewBuilder struct {
	exec   *engine.Executor
	defs   []domain.ViewDefinition
	logger *slog.Logger

	mu     sync.RWMutex
	active map[string]bool
}

// NewViewBuilder creates a ViewBuilder for the given definitions.
func NewViewBuilder(exec *engine.Executor, defs []domain.ViewDefinition, logger *slog.Logger) *ViewBuilder {
	return &ViewBuilder{
		exec:   exec,
		defs:   defs,
		logger: logger,
		active: make(map[string]bool),
	}
}

// Definitions returns the configured view definitions.
func (b *ViewBuilder) Definitions() []domain.ViewDefinition {
	return b.defs
}

// Apply drops or recreates every definition against the given set of base
// tables. Views are processed in definition order, and a created view joins
// the present set so later definitions may build on earlier ones. Failures
// are isolated per view.
func (b *ViewBuilder) Apply(ctx context.Context, tables map[string]bool) {
	present := make(map[string]bool, len(tables))
	for t := range tables {
		present[t] = true
	}

	activeNow := make(map[string]bool, len(b.defs))
	for _, def := range b.defs {
		if !depsSatisfied(def, present) {
			b.drop(ctx, def.Name)
			continue
		}
		stmt, err := ddl.CreateView(def.Name, def.Query)
		if err != nil {
			b.logger.Warn("invalid view definition", "view", def.Name, "error", err)
			continue
		}
		if err := b.exec.Exec(ctx, stmt); err != nil {
			b.logger.Warn("create view failed", "view", def.Name, "error", err)
			b.drop(ctx, def.Name)
			continue
		}
		activeNow[def.Name] = true
		present[def.Name] = true
	}

	b.mu.Lock()
	b.active = activeNow
	b.mu.Unlock()
}

// Active returns the names of views that were created on the last Apply,
// sorted.
func (b *ViewBuilder) Active() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.active))
	for n := range b.active {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the named view is currently active.
func (b *ViewBuilder) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active[name]
}

func (b *ViewBuilder) drop(ctx context.Context, name string) {
	stmt, err := ddl.DropView(name)
	if err != nil {
		return
	}
	if err := b.exec.Exec(ctx, stmt); err != nil {
		b.logger.Warn("drop view failed", "view", name, "error", err)
	}
}

func depsSatisfied(def domain.ViewDefinition, present map[string]bool) bool {
	for _, dep := range def.Requires {
		if !present[dep] {
			return false
		}
	}
	return true
}
