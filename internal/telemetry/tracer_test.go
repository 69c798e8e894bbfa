package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/telemetry"
)

func TestInitTracer(t *testing.T) {
	t.Run("Should install propagators without a collector", func(t *testing.T) {
		cleanup, err := telemetry.InitTracer(context.Background(), config.Otel{ServiceName: "catalog-sync"})
		require.NoError(t, err)
		assert.NoError(t, cleanup(context.Background()))

		fields := otel.GetTextMapPropagator().Fields()
		assert.Contains(t, fields, "traceparent")
		assert.Contains(t, fields, "baggage")
	})
}

func TestSampler(t *testing.T) {
	params := func(parent trace.SpanContext) sdktrace.SamplingParameters {
		return sdktrace.SamplingParameters{
			ParentContext: trace.ContextWithSpanContext(context.Background(), parent),
			TraceID:       trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			Name:          "op",
		}
	}

	t.Run("Should drop roots at ratio zero", func(t *testing.T) {
		res := telemetry.Sampler(0).ShouldSample(params(trace.SpanContext{}))
		assert.Equal(t, sdktrace.Drop, res.Decision)
	})

	t.Run("Should follow a sampled parent", func(t *testing.T) {
		parent := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{1},
			SpanID:     trace.SpanID{1},
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})

		res := telemetry.Sampler(0).ShouldSample(params(parent))
		assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
	})
}
