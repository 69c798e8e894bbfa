package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-sync/internal/event"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/outbox"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/ptr"
)

type FinishRunParams struct {
	ID      uuid.UUID
	Kind    model.SyncRunKind
	Status  model.SyncRunStatus
	Summary any
	Error   string
}

// SyncRunService records importer and image batch runs and publishes their
// completion through the outbox.
type SyncRunService interface {
	StartRun(ctx context.Context, kind model.SyncRunKind) (uuid.UUID, error)
	FinishRun(ctx context.Context, params FinishRunParams) error
	ListRuns(ctx context.Context, kind *model.SyncRunKind, limit int32) ([]model.SyncRun, error)
}

type syncRunService struct {
	db            db.DB
	syncRunRepo   repository.SyncRunRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewSyncRunService(
	db db.DB,
	syncRunRepo repository.SyncRunRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) SyncRunService {
	return &syncRunService{
		db:            db,
		syncRunRepo:   syncRunRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *syncRunService) StartRun(ctx context.Context, kind model.SyncRunKind) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid v7: %w", err)
	}

	if err := s.syncRunRepo.CreateSyncRun(ctx, repository.CreateSyncRunParams{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now(),
	}); err != nil {
		return uuid.Nil, fmt.Errorf("sync run repository create sync run: %w", err)
	}

	return id, nil
}

func (s *syncRunService) FinishRun(ctx context.Context, params FinishRunParams) error {
	summary, err := json.Marshal(params.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	ev := event.RunCompletedEvent{
		RunID:   params.ID,
		Kind:    params.Kind,
		Status:  params.Status,
		Summary: summary,
		Error:   params.Error,
	}
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var runErr *string
	if params.Error != "" {
		runErr = ptr.New(params.Error)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.syncRunRepo.
			WithDB(db).
			FinishSyncRun(ctx, repository.FinishSyncRunParams{
				ID:         params.ID,
				Status:     params.Status,
				FinishedAt: time.Now(),
				Summary:    summary,
				Error:      runErr,
			}); err != nil {
			return fmt.Errorf("sync run repository finish sync run: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicFor(params.Kind),
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(string(params.Kind)),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}

func (s *syncRunService) ListRuns(ctx context.Context, kind *model.SyncRunKind, limit int32) ([]model.SyncRun, error) {
	runs, err := s.syncRunRepo.ListSyncRuns(ctx, repository.ListSyncRunsParams{
		Kind:  kind,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("sync run repository list sync runs: %w", err)
	}

	return runs, nil
}
