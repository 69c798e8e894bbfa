package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	applog "github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var tracer = otel.Tracer("internal/imagefetch")

const cacheControl = "public, max-age=31536000, immutable"

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service materializes pending product images into the blob store.
type Service struct {
	cfg         config.Images
	logger      *slog.Logger
	db          db.DB
	productRepo repository.ProductRepository
	store       blob.Store
	syncRuns    service.SyncRunService
	httpClient  *http.Client
	limiter     *rate.Limiter
	now         func() time.Time
}

func NewService(
	cfg config.Images,
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	store blob.Store,
	syncRuns service.SyncRunService,
	opts ...Option,
) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 20
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	s := &Service{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "imagefetch")),
		db:          db,
		productRepo: productRepo,
		store:       store,
		syncRuns:    syncRuns,
		httpClient:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter:     rate.NewLimiter(limit, cfg.Concurrency),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RunBatch processes up to limit pending images. Items are independent: a
// failing item is marked failed and never stops the others. No transaction
// is held across a network call.
func (s *Service) RunBatch(ctx context.Context, limit int) BatchResult {
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}

	ctx, span := tracer.Start(ctx, "ImageFetch.RunBatch", trace.WithAttributes(
		attribute.Int("batch.limit", limit),
	))
	defer span.End()

	start := s.now()
	ctx, runID := s.startRun(ctx)

	res := s.runBatch(ctx, limit)
	res.DurationSeconds = s.now().Sub(start).Seconds()

	span.SetAttributes(
		attribute.Int("batch.attempted", res.Attempted),
		attribute.Int("batch.failed", res.Failed),
	)
	if res.Error != "" {
		span.SetStatus(codes.Error, res.Error)
	}

	s.finishRun(ctx, runID, res)

	if res.Attempted > 0 || res.Error != "" {
		s.logger.InfoContext(ctx, "image batch finished",
			slog.Int("attempted", res.Attempted),
			slog.Int("succeeded", res.Succeeded),
			slog.Int("failed", res.Failed),
			slog.Int("skipped_existing", res.SkippedExisting),
			slog.Float64("duration_seconds", res.DurationSeconds),
		)
	}

	return res
}

func (s *Service) runBatch(ctx context.Context, limit int) BatchResult {
	var res BatchResult

	pending, err := s.productRepo.ListPendingImages(ctx, repository.ListPendingImagesParams{
		//nolint:gosec
		Limit:         int32(limit),
		IncludeFailed: s.cfg.RetryFailed,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "error listing pending images", slog.Any("error", err))
		res.Error = fmt.Sprintf("list pending images: %v", err)
		return res
	}
	res.Attempted = len(pending)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)

	for _, item := range pending {
		g.Go(func() error {
			o := s.process(ctx, item)
			fetchTotal.WithLabelValues(o.String()).Inc()

			mu.Lock()
			res.add(o)
			mu.Unlock()
			return nil
		})
	}

	//nolint:errcheck
	g.Wait()

	return res
}

func (s *Service) process(ctx context.Context, item model.PendingImage) outcome {
	ctx, span := tracer.Start(ctx, "ImageFetch.process", trace.WithAttributes(
		attribute.String("product.sku", item.Sku),
	))
	defer span.End()

	logger := s.logger.With(slog.String("sku", item.Sku), slog.String("image_ref", item.ImageRef))
	key := model.BlobKey(item.Sku, item.Filename, item.ImageRef)

	fail := func(err error) outcome {
		span.RecordError(err)
		span.SetStatus(codes.Error, "image fetch failed")
		logger.WarnContext(ctx, "image fetch failed", slog.Any("error", err))
		s.markFailed(ctx, item, err.Error())
		return outcomeFailed
	}

	u, err := parseReference(item.ImageRef)
	if err != nil {
		return fail(err)
	}

	if _, err := s.store.Head(ctx, key); err == nil {
		if !s.markDone(ctx, item, key) {
			return outcomeFailed
		}
		return outcomeSkippedExisting
	} else if !errors.Is(err, blob.ErrNotFound) {
		return fail(fmt.Errorf("check blob: %w", err))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	if s.cfg.ProbeSize {
		if err := s.probe(fetchCtx, u); err != nil {
			return fail(err)
		}
	}

	dl, err := s.fetch(fetchCtx, u, item.Filename)
	if err != nil {
		return fail(err)
	}

	if err := s.store.Put(ctx, key, dl.data, blob.PutOptions{
		ContentType:  dl.contentType,
		CacheControl: cacheControl,
	}); err != nil {
		return fail(fmt.Errorf("store blob: %w", err))
	}
	fetchedBytes.Add(float64(len(dl.data)))

	if !s.markDone(ctx, item, key) {
		return outcomeFailed
	}
	return outcomeSucceeded
}

// markDone reports whether the product now points at key.
func (s *Service) markDone(ctx context.Context, item model.PendingImage, key string) bool {
	var updated bool
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		updated, err = s.productRepo.
			WithDB(db).
			MarkImageDone(ctx, repository.MarkImageDoneParams{
				Sku:      item.Sku,
				ImageRef: item.ImageRef,
				ImageKey: key,
				Now:      s.now(),
			})
		if err != nil {
			return fmt.Errorf("product repository mark image done: %w", err)
		}
		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "error marking image done",
			slog.String("sku", item.Sku),
			slog.Any("error", err),
		)
		return false
	}

	if !updated {
		s.logger.InfoContext(ctx, "image reference changed during fetch",
			slog.String("sku", item.Sku),
			slog.String("image_ref", item.ImageRef),
		)
	}
	return updated
}

func (s *Service) markFailed(ctx context.Context, item model.PendingImage, reason string) {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if _, err := s.productRepo.
			WithDB(db).
			MarkImageFailed(ctx, repository.MarkImageFailedParams{
				Sku:      item.Sku,
				ImageRef: item.ImageRef,
				Reason:   reason,
				Now:      s.now(),
			}); err != nil {
			return fmt.Errorf("product repository mark image failed: %w", err)
		}
		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "error marking image failed",
			slog.String("sku", item.Sku),
			slog.Any("error", err),
		)
	}
}

// startRun records the run and tags ctx with its id for logging.
func (s *Service) startRun(ctx context.Context) (context.Context, uuid.UUID) {
	id, err := s.syncRuns.StartRun(ctx, model.SyncRunKindImages)
	if err != nil {
		s.logger.ErrorContext(ctx, "error recording image batch start", slog.Any("error", err))
		return ctx, uuid.Nil
	}
	return applog.ContextWithRunID(ctx, id.String()), id
}

func (s *Service) finishRun(ctx context.Context, id uuid.UUID, res BatchResult) {
	if id == uuid.Nil {
		return
	}

	status := model.SyncRunStatusSucceeded
	if res.Error != "" {
		status = model.SyncRunStatusFailed
	}

	if err := s.syncRuns.FinishRun(ctx, service.FinishRunParams{
		ID:      id,
		Kind:    model.SyncRunKindImages,
		Status:  status,
		Summary: res,
		Error:   res.Error,
	}); err != nil {
		s.logger.ErrorContext(ctx, "error recording image batch result", slog.Any("error", err))
	}
}
