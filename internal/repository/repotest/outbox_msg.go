package repotest

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var _ repository.OutboxMsgRepository = (*OutboxMsgRepository)(nil)

type OutboxMsg struct {
	repository.ListUnprocessedOutboxMsgsResult
	Processed bool
	Error     *string
}

type OutboxMsgRepository struct {
	mu   sync.Mutex
	msgs []OutboxMsg

	// Err, when set, is returned by CreateOutboxMsg.
	Err error
}

func NewOutboxMsgRepository() *OutboxMsgRepository {
	return &OutboxMsgRepository{}
}

func (r *OutboxMsgRepository) WithDB(db.DB) repository.OutboxMsgRepository {
	return r
}

// Messages returns a copy of everything written so far.
func (r *OutboxMsgRepository) Messages() []OutboxMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.msgs)
}

func (r *OutboxMsgRepository) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	r.msgs = append(r.msgs, OutboxMsg{
		ListUnprocessedOutboxMsgsResult: repository.ListUnprocessedOutboxMsgsResult{
			ID:           uuid.New(),
			Topic:        params.Topic,
			Headers:      params.Headers,
			Payload:      params.Payload,
			PartitionKey: params.PartitionKey,
		},
	})
	return nil
}

func (r *OutboxMsgRepository) ListUnprocessedOutboxMsgs(_ context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []repository.ListUnprocessedOutboxMsgsResult
	for _, msg := range r.msgs {
		if msg.Processed {
			continue
		}
		if len(out) == int(params.BatchSize) {
			break
		}
		out = append(out, msg.ListUnprocessedOutboxMsgsResult)
	}
	return out, nil
}

func (r *OutboxMsgRepository) BulkUpdateOutboxMsgs(_ context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range params.Items {
		for i := range r.msgs {
			if r.msgs[i].ID == item.ID {
				r.msgs[i].Processed = true
				r.msgs[i].Error = item.Error
			}
		}
	}
	return nil
}
