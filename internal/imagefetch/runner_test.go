package imagefetch_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/imagefetch"
)

type countingBatches struct {
	calls     atomic.Int32
	lastLimit atomic.Int32
}

func (c *countingBatches) RunBatch(_ context.Context, limit int) imagefetch.BatchResult {
	c.calls.Add(1)
	//nolint:gosec
	c.lastLimit.Store(int32(limit))
	return imagefetch.BatchResult{}
}

func TestRunner(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Should run batches on the interval", func(t *testing.T) {
		batches := &countingBatches{}
		runner := imagefetch.NewRunner(config.Images{Interval: 10 * time.Millisecond, BatchLimit: 7}, logger, batches)

		cleanup := runner.Run(context.Background())
		assert.Eventually(t, func() bool { return batches.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		cleanup()

		assert.Equal(t, int32(7), batches.lastLimit.Load())
	})

	t.Run("Should run a batch when triggered", func(t *testing.T) {
		batches := &countingBatches{}
		runner := imagefetch.NewRunner(config.Images{Interval: time.Hour, BatchLimit: 5}, logger, batches)

		cleanup := runner.Run(context.Background())
		defer cleanup()

		runner.Trigger()
		runner.Trigger()
		assert.Eventually(t, func() bool { return batches.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	})
}
