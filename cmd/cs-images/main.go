// Command cs-images runs one image fetch batch and prints its result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/imagefetch"
	"github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-sync/internal/telemetry"
)

func main() {
	limit := flag.Int("limit", 0, "maximum products to process (0 uses IMAGES_BATCH_LIMIT)")
	flag.Parse()

	if err := run(*limit); err != nil {
		fmt.Fprintf(os.Stderr, "error running image batch: %v\n", err)
		os.Exit(1)
	}
}

func run(limit int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Otel     config.Otel
		Images   config.Images
		Blob     config.Blob
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

	blobStore, err := blob.New(cfg.Blob)
	if err != nil {
		return fmt.Errorf("error creating blob store: %w", err)
	}

	syncRunService := service.NewSyncRunService(dbClient,
		repository.NewSyncRunRepository(dbClient), repository.NewOutboxMsgRepository(dbClient))

	svc := imagefetch.NewService(cfg.Images, logger, dbClient,
		repository.NewProductRepository(dbClient), blobStore, syncRunService)

	res := svc.RunBatch(ctx, limit)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if res.Error != "" {
		return fmt.Errorf("image batch failed: %s", res.Error)
	}

	return nil
}
