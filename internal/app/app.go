// Package app wires the engine executor, catalog, services, and tool
// registry from the dependencies main provides.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/datamesa/datamesa/internal/catalog"
	"github.com/datamesa/datamesa/internal/config"
	"github.com/datamesa/datamesa/internal/db/repository"
	"github.com/datamesa/datamesa/internal/engine"
	"github.com/datamesa/datamesa/internal/service/analytics"
	catalogsvc "github.com/datamesa/datamesa/internal/service/catalog"
	"github.com/datamesa/datamesa/internal/service/query"
	"github.com/datamesa/datamesa/internal/tools"
)

// Deps holds the external dependencies that main() must provide: config and
// the open database handles. The app package never opens connections itself.
type Deps struct {
	Cfg     *config.Config
	DuckDB  *sql.DB
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully wired application.
type App struct {
	Sync      *catalog.Synchronizer
	Views     *catalog.ViewBuilder // nil when no views file is configured
	Scheduler *catalog.Scheduler   // nil when auto refresh is off
	Registry  *tools.Registry
}

// New wires the catalog, services, and tool registry from deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	exec := engine.NewExecutor(deps.DuckDB)

	defs, err := catalog.LoadViewDefinitions(cfg.ViewsPath)
	if err != nil {
		return nil, fmt.Errorf("load view definitions: %w", err)
	}
	var views *catalog.ViewBuilder
	if len(defs) > 0 {
		views = catalog.NewViewBuilder(exec, defs, deps.Logger.With("component", "views"))
		deps.Logger.Info("view definitions loaded", "path", cfg.ViewsPath, "count", len(defs))
	}

	sync := catalog.NewSynchronizer(
		catalog.NewDiscoverer(cfg.DataDir),
		catalog.NewLoader(exec),
		views,
		deps.Logger.With("component", "catalog"),
	)

	calls := repository.NewToolCallRepo(deps.WriteDB, deps.ReadDB)

	querySvc := query.NewService(exec, cfg.QueryPreviewRows, cfg.ExportDir)
	analyticsSvc := analytics.NewService(exec, cfg.QueryPreviewRows, cfg.JoinRowCap)
	catalogSvc := catalogsvc.NewService(
		sync, views, exec, calls,
		cfg.AutoRefresh, cfg.RefreshInterval,
		deps.Logger.With("component", "catalog"),
	)

	reg := tools.NewRegistry(querySvc, analyticsSvc, catalogSvc, calls, deps.Logger.With("component", "tools"))

	var sched *catalog.Scheduler
	if cfg.AutoRefresh {
		sched = catalog.NewScheduler(sync, cfg.RefreshInterval, deps.Logger.With("component", "scheduler"))
	}

	return &App{
		Sync:      sync,
		Views:     views,
		Scheduler: sched,
		Registry:  reg,
	}, nil
}
