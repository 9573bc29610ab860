package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpattn/canvasdb/internal/canvas"
	"github.com/rpattn/canvasdb/internal/config"
	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/export"
	"github.com/rpattn/canvasdb/internal/ingestion"
	"github.com/rpattn/canvasdb/internal/repository"
	"github.com/rpattn/canvasdb/internal/runner"
	"github.com/rpattn/canvasdb/internal/schema"
	"github.com/rpattn/canvasdb/internal/seed"
	"github.com/rpattn/canvasdb/internal/webhook"
)

// app holds the services shared by the commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	conn     *db.Connection
	store    *repository.Store
	schema   *schema.Service
	runner   *runner.Runner
	exporter *export.Service
	importer *ingestion.Service
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	logger, err := cfg.Log.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.store = repository.NewMemoryStore()
	default:
		dbCfg := cfg.Database.DB()
		if err := db.RunMigrations(dbCfg, logger); err != nil {
			return nil, err
		}
		conn, err := db.NewConnection(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		a.conn = conn
		a.store = repository.NewPostgresStore(conn)
	}
	logger.Info("store ready", "driver", cfg.Store.Driver, "config_file", cfg.File)

	a.schema = schema.NewService(a.store, logger)
	if cfg.Seed.Demo {
		if _, err := seed.Demo(ctx, a.schema, a.store.Canvases, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	sender := webhook.NewClient(webhook.WithTimeout(cfg.Webhook.Timeout), webhook.WithLogger(logger))
	engine := canvas.New(a.store, canvas.WithLogger(logger), canvas.WithWebhookSender(sender))
	a.runner = runner.New(engine, a.store.Canvases, a.store.Views, logger)
	a.exporter = export.NewService(a.store.Views, export.WithLogger(logger))
	a.importer = ingestion.NewService(a.schema, logger)
	return a, nil
}

func (a *app) Close() {
	if a.conn != nil {
		a.conn.Close()
	}
}
