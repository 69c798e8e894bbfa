package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/event"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http"
	"github.com/tuanvumaihuynh/catalog-sync/internal/imagefetch"
	"github.com/tuanvumaihuynh/catalog-sync/internal/importer"
	"github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/internal/mapping"
	"github.com/tuanvumaihuynh/catalog-sync/internal/relay"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-sync/internal/telemetry"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/cmdutil"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Admin    config.Admin
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
		Source   config.Source
		Import   config.Import
		Images   config.Images
		Blob     config.Blob
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log, os.Stdout)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
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

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	productRepository := repository.NewProductRepository(dbClient)
	syncRunRepository := repository.NewSyncRunRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	productService := service.NewProductService(productRepository)
	syncRunService := service.NewSyncRunService(dbClient, syncRunRepository, outboxMsgRepository)

	importService := importer.NewService(cfg.Import, logger, dbClient, productRepository, syncRunService,
		mapping.NewMapper(validator.MustNewDefaultValidator()))
	imageService := imagefetch.NewService(cfg.Images, logger, dbClient, productRepository, blobStore, syncRunService)
	imageRunner := imagefetch.NewRunner(cfg.Images, logger, imageService)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer, imageRunner)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, cfg.Admin, logger, http.Deps{
			Source:     cfg.Source,
			Importer:   importService,
			Images:     imageService,
			ProductSvc: productService,
			SyncRunSvc: syncRunService,
			Blobs:      blobStore,
			Health:     dbClient,
		})
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		cleanup := imageRunner.Run(ctx)
		logger.InfoContext(ctx, "image runner started", slog.Duration("interval", cfg.Images.Interval))

		<-interruptChan

		logger.InfoContext(ctx, "image runner is shutting down")
		cleanup()

		logger.InfoContext(ctx, "image runner is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
