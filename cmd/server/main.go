// Package main is the entry point for the datamesa server: it loads config,
// opens DuckDB and the SQLite call log, runs the initial catalog refresh,
// and serves the tool API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/datamesa/datamesa/internal/api"
	"github.com/datamesa/datamesa/internal/app"
	"github.com/datamesa/datamesa/internal/config"
	internaldb "github.com/datamesa/datamesa/internal/db"
	"github.com/datamesa/datamesa/internal/engine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	duckDB, err := engine.Open(ctx, "")
	if err != nil {
		return err
	}
	defer duckDB.Close()
	logger.Info("duckdb opened", "version", engine.Version(ctx, duckDB))

	writeDB, readDB, err := internaldb.Open(cfg.MetaDBPath)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer writeDB.Close()
	defer readDB.Close()
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate metadata store: %w", err)
	}

	a, err := app.New(app.Deps{
		Cfg:     cfg,
		DuckDB:  duckDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// First pass before serving so the catalog is populated at startup.
	outcome, err := a.Sync.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	logger.Info("initial catalog refresh done",
		"tables", outcome.TableCount,
		"scanned_files", outcome.ScannedFiles,
		"failed_files", len(outcome.Failed),
	)

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.Scheduler.Stop()
	}

	router := api.NewRouter(a.Registry, duckDB, a.Sync, logger, api.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http api listening", "addr", cfg.ListenAddr,
			"try", fmt.Sprintf("curl http://%s/healthz", curlHostForListenAddr(cfg.ListenAddr)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// curlHostForListenAddr turns a listen address into a host usable in a
// copy-pasteable URL. Wildcard and empty hosts become localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		return "localhost:" + port
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]:" + port
	}
	return host + ":" + port
}
