package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type SyncRunKind string

const (
	SyncRunKindImport SyncRunKind = "import"
	SyncRunKindImages SyncRunKind = "images"
)

type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusSucceeded SyncRunStatus = "succeeded"
	SyncRunStatusFailed    SyncRunStatus = "failed"
)

// SyncRun is the bookkeeping record of one importer or image batch run.
type SyncRun struct {
	ID         uuid.UUID       `json:"id"`
	Kind       SyncRunKind     `json:"kind"`
	Status     SyncRunStatus   `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	Error      *string         `json:"error,omitempty"`
}
