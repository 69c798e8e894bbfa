package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	applog "github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/internal/mapping"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/source"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var tracer = otel.Tracer("internal/importer")

// ListerFactory builds the source client for one run.
type ListerFactory func(cfg config.Source) source.Lister

type Option func(*Service)

func WithListerFactory(f ListerFactory) Option {
	return func(s *Service) {
		s.newLister = f
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service brings the products table in line with the external source.
type Service struct {
	cfg         config.Import
	logger      *slog.Logger
	db          db.DB
	productRepo repository.ProductRepository
	syncRuns    service.SyncRunService
	mapper      *mapping.Mapper
	newLister   ListerFactory
	now         func() time.Time
}

func NewService(
	cfg config.Import,
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	syncRuns service.SyncRunService,
	mapper *mapping.Mapper,
	opts ...Option,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	s := &Service{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "importer")),
		db:          db,
		productRepo: productRepo,
		syncRuns:    syncRuns,
		mapper:      mapper,
		newLister: func(cfg config.Source) source.Lister {
			return source.NewClient(cfg)
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run imports every page of the source. Only an incomplete source
// configuration is returned as an error; everything else ends up in Result.
func (s *Service) Run(ctx context.Context, src config.Source) (Result, error) {
	if missing := src.MissingFields(); len(missing) > 0 {
		return Result{}, apperr.SourceConfigErr.WithMsg(
			fmt.Sprintf("missing source settings: %s", strings.Join(missing, ", ")),
		)
	}

	ctx, span := tracer.Start(ctx, "Importer.Run")
	defer span.End()

	start := s.now()
	ctx, runID := s.startRun(ctx)

	res := s.run(ctx, src)
	res.DurationSeconds = s.now().Sub(start).Seconds()

	span.SetAttributes(
		attribute.Int("import.records_fetched", res.RecordsFetched),
		attribute.Int("import.products_upserted", res.ProductsUpserted),
	)
	if res.Status == StatusFailed {
		span.SetStatus(codes.Error, res.Error)
	}

	runsTotal.WithLabelValues(string(res.Status)).Inc()
	runDuration.Observe(res.DurationSeconds)

	s.finishRun(ctx, runID, res)

	s.logger.InfoContext(ctx, "import finished",
		slog.String("status", string(res.Status)),
		slog.Int("records_fetched", res.RecordsFetched),
		slog.Int("records_skipped", res.RecordsSkipped),
		slog.Int("products_upserted", res.ProductsUpserted),
		slog.Int("images_reset", res.ImagesReset),
		slog.Int("batches_failed", res.BatchesFailed),
		slog.Float64("duration_seconds", res.DurationSeconds),
	)

	return res, nil
}

func (s *Service) run(ctx context.Context, src config.Source) Result {
	res := Result{Status: StatusSucceeded}
	lister := s.newLister(src)
	buf := newBuffer(s.cfg.BatchSize)

	cursor := ""
	for {
		page, err := lister.ListPage(ctx, cursor)
		if err != nil {
			s.logger.ErrorContext(ctx, "error fetching source page",
				slog.Int("page", res.PagesFetched+1),
				slog.Any("error", err),
			)
			res.fail(fmt.Sprintf("fetch page %d: %v", res.PagesFetched+1, err))
			break
		}

		res.PagesFetched++
		res.RecordsFetched += len(page.Records)

		for _, rec := range page.Records {
			product, err := s.mapper.Map(rec)
			if err != nil {
				res.RecordsSkipped++
				recordsTotal.WithLabelValues(skipOutcome(err)).Inc()
				s.logger.WarnContext(ctx, "skipping source record",
					slog.String("record_id", rec.ID),
					slog.Any("error", err),
				)
				continue
			}

			recordsTotal.WithLabelValues("mapped").Inc()
			if buf.add(product) {
				s.flush(ctx, &res, buf.take())
			}
		}

		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			res.fail(fmt.Sprintf("source repeated cursor %q", cursor))
			break
		}
		cursor = page.NextCursor
	}

	// Records fetched before a source failure are still written.
	s.flush(ctx, &res, buf.take())

	return res
}

func skipOutcome(err error) string {
	if errors.Is(err, mapping.ErrMissingSku) {
		return "missing_sku"
	}
	return "invalid"
}

// flush writes one batch atomically. A failed batch is recorded and the
// import continues; earlier batches stay committed.
func (s *Service) flush(ctx context.Context, res *Result, products []model.Product) {
	if len(products) == 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "Importer.flush", trace.WithAttributes(
		attribute.Int("batch.size", len(products)),
	))
	defer span.End()

	var out repository.UpsertProductsResult
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		out, err = s.productRepo.
			WithDB(db).
			UpsertProducts(ctx, products, s.now())
		if err != nil {
			return fmt.Errorf("product repository upsert products: %w", err)
		}
		return nil
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		s.logger.ErrorContext(ctx, "error writing batch",
			slog.Int("size", len(products)),
			slog.String("first_sku", products[0].Sku),
			slog.Any("error", err),
		)
		res.BatchesFailed++
		res.fail(fmt.Sprintf("write batch starting at sku %q: %v", products[0].Sku, err))
		return
	}

	res.ProductsUpserted += out.ProductsUpserted
	res.ImagesUpserted += out.ImagesUpserted
	res.ImagesReset += out.ImagesReset
}

// startRun records the run and tags ctx with its id for logging.
func (s *Service) startRun(ctx context.Context) (context.Context, uuid.UUID) {
	id, err := s.syncRuns.StartRun(ctx, model.SyncRunKindImport)
	if err != nil {
		s.logger.ErrorContext(ctx, "error recording import start", slog.Any("error", err))
		return ctx, uuid.Nil
	}
	return applog.ContextWithRunID(ctx, id.String()), id
}

func (s *Service) finishRun(ctx context.Context, id uuid.UUID, res Result) {
	if id == uuid.Nil {
		return
	}

	if err := s.syncRuns.FinishRun(ctx, service.FinishRunParams{
		ID:      id,
		Kind:    model.SyncRunKindImport,
		Status:  res.runStatus(),
		Summary: res,
		Error:   res.Error,
	}); err != nil {
		s.logger.ErrorContext(ctx, "error recording import result", slog.Any("error", err))
	}
}
