// Package main is the entry point for the datamesa MCP server. It exposes
// the same tool registry as the HTTP API over stdio for MCP clients, with
// the scheduler refreshing the catalog in the background.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	_ "github.com/mattn/go-sqlite3"

	"github.com/datamesa/datamesa/internal/app"
	"github.com/datamesa/datamesa/internal/config"
	internaldb "github.com/datamesa/datamesa/internal/db"
	"github.com/datamesa/datamesa/internal/engine"
	"github.com/datamesa/datamesa/internal/tools"
)

var version = "dev"

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

	// stdout carries the MCP protocol; everything else goes to stderr.
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

	outcome, err := a.Sync.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	logger.Info("initial catalog refresh done", "tables", outcome.TableCount, "failed_files", len(outcome.Failed))

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.Scheduler.Stop()
	}

	srv := server.NewMCPServer("datamesa", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, tool := range a.Registry.List() {
		srv.AddTool(
			mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.Schema),
			toolHandler(a.Registry, tool.Name),
		)
	}

	logger.Info("mcp server listening on stdio", "tools", len(a.Registry.List()))
	return server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout)
}

// toolHandler bridges one registry tool into an MCP tool handler. Tool
// failures become MCP tool errors, not protocol errors.
func toolHandler(reg *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if raw := req.GetRawArguments(); raw != nil {
			b, err := json.Marshal(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encoding arguments: %v", err)), nil
			}
			args = b
		}

		result, err := reg.Call(ctx, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
