package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
)

const (
	TopicImportCompleted = "catalog.import.completed"
	TopicImagesCompleted = "catalog.images.completed"
)

// RunCompletedEvent is published once per importer or image batch run.
// Summary is the flat JSON result of the run.
type RunCompletedEvent struct {
	RunID   uuid.UUID           `json:"run_id"`
	Kind    model.SyncRunKind   `json:"kind"`
	Status  model.SyncRunStatus `json:"status"`
	Summary json.RawMessage     `json:"summary"`
	Error   string              `json:"error,omitempty"`
}

// TopicFor returns the topic a run of the given kind is published on.
func TopicFor(kind model.SyncRunKind) string {
	if kind == model.SyncRunKindImages {
		return TopicImagesCompleted
	}
	return TopicImportCompleted
}

// BatchTrigger asks the image scheduler to run its next batch early.
type BatchTrigger interface {
	Trigger()
}

func (s *Service) handleImportCompletedEvent(ctx context.Context, ev RunCompletedEvent) error {
	upserted := gjson.GetBytes(ev.Summary, "productsUpserted").Int()
	reset := gjson.GetBytes(ev.Summary, "imagesReset").Int()

	s.logger.InfoContext(ctx, "import completed",
		slog.String("run_id", ev.RunID.String()),
		slog.String("status", string(ev.Status)),
		slog.Int64("products_upserted", upserted),
		slog.Int64("images_reset", reset),
	)

	if upserted > 0 && s.trigger != nil {
		s.trigger.Trigger()
	}

	return nil
}

func (s *Service) handleImagesCompletedEvent(ctx context.Context, ev RunCompletedEvent) error {
	attrs := []any{
		slog.String("run_id", ev.RunID.String()),
		slog.String("status", string(ev.Status)),
		slog.Int64("attempted", gjson.GetBytes(ev.Summary, "attempted").Int()),
		slog.Int64("failed", gjson.GetBytes(ev.Summary, "failed").Int()),
	}

	if ev.Status == model.SyncRunStatusFailed {
		s.logger.WarnContext(ctx, "image batch completed with failures", attrs...)
		return nil
	}

	s.logger.InfoContext(ctx, "image batch completed", attrs...)
	return nil
}
