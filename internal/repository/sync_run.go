package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

type CreateSyncRunParams struct {
	ID        uuid.UUID
	Kind      model.SyncRunKind
	StartedAt time.Time
}

type FinishSyncRunParams struct {
	ID         uuid.UUID
	Status     model.SyncRunStatus
	FinishedAt time.Time
	Summary    json.RawMessage
	Error      *string
}

type ListSyncRunsParams struct {
	Kind  *model.SyncRunKind
	Limit int32
}

type SyncRunRepository interface {
	WithDB(db db.DB) SyncRunRepository
	CreateSyncRun(ctx context.Context, params CreateSyncRunParams) error
	FinishSyncRun(ctx context.Context, params FinishSyncRunParams) error
	ListSyncRuns(ctx context.Context, params ListSyncRunsParams) ([]model.SyncRun, error)
}

type syncRunRepository struct {
	db db.DB
}

func NewSyncRunRepository(db db.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r syncRunRepository) WithDB(db db.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r syncRunRepository) CreateSyncRun(ctx context.Context, params CreateSyncRunParams) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO sync_runs (id, kind, status, started_at)
		VALUES (@id, @kind, @status, @started_at)
	`, pgx.NamedArgs{
		"id":         params.ID,
		"kind":       string(params.Kind),
		"status":     string(model.SyncRunStatusRunning),
		"started_at": params.StartedAt,
	}); err != nil {
		return fmt.Errorf("sync run create: %w", err)
	}

	return nil
}

func (r syncRunRepository) FinishSyncRun(ctx context.Context, params FinishSyncRunParams) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE sync_runs
		SET status      = @status,
			finished_at = @finished_at,
			summary     = @summary,
			error       = @error
		WHERE id = @id
	`, pgx.NamedArgs{
		"id":          params.ID,
		"status":      string(params.Status),
		"finished_at": params.FinishedAt,
		"summary":     params.Summary,
		"error":       params.Error,
	}); err != nil {
		return fmt.Errorf("sync run finish: %w", err)
	}

	return nil
}

func (r syncRunRepository) ListSyncRuns(ctx context.Context, params ListSyncRunsParams) ([]model.SyncRun, error) {
	var kind *string
	if params.Kind != nil {
		k := string(*params.Kind)
		kind = &k
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, kind, status, started_at, finished_at, summary, error
		FROM sync_runs
		WHERE @kind::text IS NULL OR kind = @kind::text
		ORDER BY started_at DESC
		LIMIT @limit
	`, pgx.NamedArgs{
		"kind":  kind,
		"limit": params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("sync run list: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SyncRun, error) {
		var (
			run     model.SyncRun
			summary []byte
		)
		if err := row.Scan(&run.ID, &run.Kind, &run.Status, &run.StartedAt, &run.FinishedAt, &summary, &run.Error); err != nil {
			return model.SyncRun{}, err
		}
		run.Summary = summary
		return run, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect sync runs: %w", err)
	}

	return runs, nil
}
