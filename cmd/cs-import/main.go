// Command cs-import runs the catalog importer once and prints its result as JSON.
// It exits non-zero when the run failed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/importer"
	"github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/internal/mapping"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-sync/internal/telemetry"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running import: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Otel     config.Otel
		Source   config.Source
		Import   config.Import
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log, os.Stderr)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(context.Background()); err != nil {
			logger.Error("error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	productRepository := repository.NewProductRepository(dbClient)
	syncRunService := service.NewSyncRunService(dbClient,
		repository.NewSyncRunRepository(dbClient), repository.NewOutboxMsgRepository(dbClient))

	svc := importer.NewService(cfg.Import, logger, dbClient, productRepository, syncRunService,
		mapping.NewMapper(validator.MustNewDefaultValidator()))

	res, err := svc.Run(ctx, cfg.Source)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if res.Status == importer.StatusFailed {
		return fmt.Errorf("import failed: %s", res.Error)
	}

	return nil
}
