package event_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-sync/internal/event"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = map[string]mq.HandlerFunc{}
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.running = false }, nil
}

type countingTrigger struct {
	calls int
}

func (t *countingTrigger) Trigger() {
	t.calls++
}

func payload(t *testing.T, kind model.SyncRunKind, summary string) []byte {
	t.Helper()
	b, err := json.Marshal(event.RunCompletedEvent{
		RunID:   uuid.New(),
		Kind:    kind,
		Status:  model.SyncRunStatusSucceeded,
		Summary: json.RawMessage(summary),
	})
	require.NoError(t, err)
	return b
}

func TestService(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	consumer := &fakeConsumer{}
	trigger := &countingTrigger{}
	svc := event.New(logger, consumer, trigger)

	cleanup, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.True(t, consumer.running)
	assert.Contains(t, consumer.handlers, event.TopicImportCompleted)
	assert.Contains(t, consumer.handlers, event.TopicImagesCompleted)

	t.Run("Should trigger an image batch after an import that wrote products", func(t *testing.T) {
		handle := consumer.handlers[event.TopicImportCompleted]

		require.NoError(t, handle(ctx, event.TopicImportCompleted, payload(t, model.SyncRunKindImport, `{"productsUpserted":3,"imagesReset":1}`)))
		assert.Equal(t, 1, trigger.calls)

		require.NoError(t, handle(ctx, event.TopicImportCompleted, payload(t, model.SyncRunKindImport, `{"productsUpserted":0}`)))
		assert.Equal(t, 1, trigger.calls)
	})

	t.Run("Should accept image batch events", func(t *testing.T) {
		handle := consumer.handlers[event.TopicImagesCompleted]
		assert.NoError(t, handle(ctx, event.TopicImagesCompleted, payload(t, model.SyncRunKindImages, `{"attempted":2,"failed":1}`)))
	})

	t.Run("Should reject malformed payloads", func(t *testing.T) {
		handle := consumer.handlers[event.TopicImportCompleted]
		assert.Error(t, handle(ctx, event.TopicImportCompleted, []byte("{")))
	})

	cleanup()
	assert.False(t, consumer.running)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, event.TopicImportCompleted, event.TopicFor(model.SyncRunKindImport))
	assert.Equal(t, event.TopicImagesCompleted, event.TopicFor(model.SyncRunKindImages))
}
