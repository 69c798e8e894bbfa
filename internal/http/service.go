package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http/apierr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http/metric"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http/middleware"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http/swagger"
	"github.com/tuanvumaihuynh/catalog-sync/internal/imagefetch"
	"github.com/tuanvumaihuynh/catalog-sync/internal/importer"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Importer runs one full catalog import.
type Importer interface {
	Run(ctx context.Context, src config.Source) (importer.Result, error)
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Source     config.Source
	Importer   Importer
	Images     imagefetch.BatchRunner
	ProductSvc service.ProductService
	SyncRunSvc service.SyncRunService
	Blobs      blob.Store
	// Health is optional; without it /healthz always reports ok.
	Health db.HealthChecker
}

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	admin     config.Admin
	logger    *slog.Logger
	metrics   *metric.Metrics
	validator validator.Validator
	deps      Deps
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	admin config.Admin,
	log *slog.Logger,
	deps Deps,
) *Service {
	return &Service{
		cfg:       cfg,
		admin:     admin,
		logger:    log.With(slog.String("service", "http")),
		metrics:   metric.New(),
		validator: validator.MustNewDefaultValidator(),
		deps:      deps,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	return s.RunWithServer(ctx, s.Handler())
}

// Handler builds the router with every middleware and route registered.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return r
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", srv.Addr))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	products := newProductHandler(s, s.deps.ProductSvc)
	r.Get("/products", products.ListProducts)
	r.Get("/products/{sku}", products.GetProduct)

	images := newImageHandler(s, s.deps.Blobs)
	r.Get("/images/*", images.GetImage)
	r.Head("/images/*", images.GetImage)

	admin := newAdminHandler(s, s.deps)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.BasicAuth(s.admin.Username, s.admin.PasswordHash))
		r.Post("/import", admin.RunImport)
		r.Post("/images/batch", admin.RunImageBatch)
		r.Get("/sync-runs", admin.ListSyncRuns)
	})

	r.Get(middleware.HealthPath, s.handleHealth)

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WarnContext(r.Context(), "error encoding response",
			slog.Any("error", err))
	}
}

func (s *Service) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	if !validator.IsValidationError(err) {
		err = apperr.ValidationErr.WithMsg(err.Error()).WrapParent(err)
	}
	res := apierr.New(err)

	s.writeJSON(w, r, res.StatusCode, res)
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	s.writeJSON(w, r, res.StatusCode, res)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if ok, err := s.deps.Health.IsHealthy(r.Context()); !ok || err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
			s.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}
