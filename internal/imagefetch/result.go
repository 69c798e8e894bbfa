package imagefetch

// BatchResult summarizes one scheduler batch. Error is set only when the
// batch could not be selected at all.
type BatchResult struct {
	Attempted       int     `json:"attempted"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	SkippedExisting int     `json:"skippedExisting"`
	DurationSeconds float64 `json:"durationSeconds"`
	Error           string  `json:"error,omitempty"`
}

type outcome uint8

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeSkippedExisting
)

func (o outcome) String() string {
	return []string{"succeeded", "failed", "skipped_existing"}[o]
}

func (r *BatchResult) add(o outcome) {
	switch o {
	case outcomeSucceeded:
		r.Succeeded++
	case outcomeFailed:
		r.Failed++
	case outcomeSkippedExisting:
		r.SkippedExisting++
	}
}
