package imagefetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
)

// BatchRunner runs one scheduler batch.
type BatchRunner interface {
	RunBatch(ctx context.Context, limit int) BatchResult
}

// Runner repeats batches on an interval. Batches never overlap; Trigger
// starts the next one early.
type Runner struct {
	cfg     config.Images
	logger  *slog.Logger
	batches BatchRunner

	stopChan    chan struct{}
	triggerChan chan struct{}
}

func NewRunner(cfg config.Images, logger *slog.Logger, batches BatchRunner) *Runner {
	return &Runner{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "imagefetch_runner")),
		batches:     batches,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate batch. It never blocks.
func (r *Runner) Trigger() {
	select {
	case r.triggerChan <- struct{}{}:
	default:
	}
}

type CleanupFunc func()

func (r *Runner) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		r.run(ctx)
	}()

	return func() {
		close(r.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (r *Runner) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-time.After(r.cfg.Interval):
		case <-r.triggerChan:
			r.logger.DebugContext(ctx, "image batch triggered")
		}

		r.batches.RunBatch(ctx, r.cfg.BatchLimit)
	}
}
