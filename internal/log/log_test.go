package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/log"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/correlationid"
)

func TestNewSlogLogger(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	cfg := config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo}

	t.Run("Should enrich records with correlation and trace ids", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewSlogLogger(cfg, &buf)

		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: trace.TraceID{1},
			SpanID:  trace.SpanID{2},
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)
		ctx = correlationid.NewContext(ctx, "corr-1")

		logger.InfoContext(ctx, "hello", slog.String("sku", "ABC-1"))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "ABC-1", line["sku"])
		assert.Equal(t, "corr-1", line["correlation_id"])
		assert.Equal(t, spanCtx.TraceID().String(), line["trace_id"])
		assert.Equal(t, spanCtx.SpanID().String(), line["span_id"])
	})

	t.Run("Should tag records with the sync run id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewSlogLogger(cfg, &buf)

		logger.InfoContext(log.ContextWithRunID(context.Background(), "run-1"), "batch done")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "run-1", line["run_id"])
	})

	t.Run("Should respect the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewSlogLogger(cfg, &buf)

		logger.Debug("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("Should write text output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewSlogLogger(config.Log{Format: config.LogFormatText, Level: slog.LevelInfo}, &buf)

		logger.Info("plain")
		assert.Contains(t, buf.String(), "plain")
	})
}
