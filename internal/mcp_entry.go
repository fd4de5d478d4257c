package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ravlen/upkeep/internal/catalog"
	"github.com/ravlen/upkeep/internal/maintsvc"
	"github.com/ravlen/upkeep/internal/mcpserver"
	"github.com/ravlen/upkeep/internal/store"
)

// RunMCP starts the MCP stdio server over the same database. Logs go to
// stderr because stdout carries the MCP transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel.Level,
	}))
	slog.SetDefault(logger)

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	if cfg.Seed.Path != "" {
		seeder := catalog.NewSeeder(db, cfg.Seed.Path, logger)
		if _, err := seeder.Sync(); err != nil {
			logger.Warn("catalog seed load failed", slog.String("error", err.Error()))
		}
	}

	svc := maintsvc.NewService(db, nil)
	return mcpserver.New(svc).ServeStdio()
}
