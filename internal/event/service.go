package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/mq"
)

// Service consumes catalog run events.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
	trigger    BatchTrigger
}

// New creates a new event service. trigger may be nil.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	trigger BatchTrigger,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
		trigger:    trigger,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handlers := map[string]func(context.Context, RunCompletedEvent) error{
		TopicImportCompleted: s.handleImportCompletedEvent,
		TopicImagesCompleted: s.handleImagesCompletedEvent,
	}

	for topic, handle := range handlers {
		if err := s.mqConsumer.RegisterHandler(topic, decodeRunCompleted(handle)); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", topic, err)
		}
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func decodeRunCompleted(handle func(context.Context, RunCompletedEvent) error) mq.HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		var ev RunCompletedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	}
}
