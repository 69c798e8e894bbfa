package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-sync/pkg/correlationid"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/outbox"
)

func TestHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xa},
		SpanID:     trace.SpanID{0xb},
		TraceFlags: trace.FlagsSampled,
	})

	t.Run("Should carry trace and correlation id through headers", func(t *testing.T) {
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)
		ctx = correlationid.NewContext(ctx, "corr-7")

		headers := outbox.BuildHeaders(ctx)
		assert.Equal(t, "corr-7", headers[correlationid.Header])
		assert.NotEmpty(t, headers["traceparent"])

		got := outbox.ExtractContextFromHeaders(context.Background(), headers)
		id, ok := correlationid.FromContext(got)
		assert.True(t, ok)
		assert.Equal(t, "corr-7", id)
		assert.Equal(t, spanCtx.TraceID(), trace.SpanContextFromContext(got).TraceID())
	})

	t.Run("Should order record headers by key", func(t *testing.T) {
		headers := outbox.RecordHeaders(map[string]string{"b": "2", "a": "1"})

		assert.Equal(t, []kgo.RecordHeader{
			{Key: "a", Value: []byte("1")},
			{Key: "b", Value: []byte("2")},
		}, headers)
	})

	t.Run("Should read the correlation id from a record", func(t *testing.T) {
		rec := &kgo.Record{Headers: []kgo.RecordHeader{{Key: correlationid.Header, Value: []byte("corr-8")}}}

		id, ok := correlationid.FromContext(outbox.InjectCorrelationIDFromRecord(context.Background(), rec))
		assert.True(t, ok)
		assert.Equal(t, "corr-8", id)

		_, ok = correlationid.FromContext(outbox.InjectCorrelationIDFromRecord(context.Background(), &kgo.Record{}))
		assert.False(t, ok)
	})
}
