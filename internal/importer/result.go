package importer

import "github.com/tuanvumaihuynh/catalog-sync/internal/model"

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result summarizes one import run. Source and store failures are reported
// here instead of as errors.
type Result struct {
	Status           Status  `json:"status"`
	RecordsFetched   int     `json:"recordsFetched"`
	RecordsSkipped   int     `json:"recordsSkipped"`
	PagesFetched     int     `json:"pagesFetched"`
	ProductsUpserted int     `json:"productsUpserted"`
	ImagesUpserted   int     `json:"imagesUpserted"`
	ImagesReset      int     `json:"imagesReset"`
	BatchesFailed    int     `json:"batchesFailed"`
	DurationSeconds  float64 `json:"durationSeconds"`
	Error            string  `json:"error,omitempty"`
}

// fail marks the result failed. The first message is kept.
func (r *Result) fail(msg string) {
	r.Status = StatusFailed
	if r.Error == "" {
		r.Error = msg
	}
}

func (r Result) runStatus() model.SyncRunStatus {
	if r.Status == StatusFailed {
		return model.SyncRunStatusFailed
	}
	return model.SyncRunStatusSucceeded
}
