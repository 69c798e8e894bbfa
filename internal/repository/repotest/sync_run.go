package repotest

import (
	"context"
	"sort"
	"sync"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var _ repository.SyncRunRepository = (*SyncRunRepository)(nil)

type SyncRunRepository struct {
	mu   sync.Mutex
	runs map[string]model.SyncRun

	// Err, when set, is returned by every write.
	Err error
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{runs: map[string]model.SyncRun{}}
}

func (r *SyncRunRepository) WithDB(db.DB) repository.SyncRunRepository {
	return r
}

func (r *SyncRunRepository) CreateSyncRun(_ context.Context, params repository.CreateSyncRunParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	r.runs[params.ID.String()] = model.SyncRun{
		ID:        params.ID,
		Kind:      params.Kind,
		Status:    model.SyncRunStatusRunning,
		StartedAt: params.StartedAt,
	}
	return nil
}

func (r *SyncRunRepository) FinishSyncRun(_ context.Context, params repository.FinishSyncRunParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	run, ok := r.runs[params.ID.String()]
	if !ok {
		return nil
	}
	finished := params.FinishedAt
	run.Status = params.Status
	run.FinishedAt = &finished
	run.Summary = params.Summary
	run.Error = params.Error
	r.runs[params.ID.String()] = run
	return nil
}

func (r *SyncRunRepository) ListSyncRuns(_ context.Context, params repository.ListSyncRunsParams) ([]model.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.SyncRun
	for _, run := range r.runs {
		if params.Kind != nil && run.Kind != *params.Kind {
			continue
		}
		out = append(out, run)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > int(params.Limit) {
		out = out[:params.Limit]
	}
	return out, nil
}
