package model

// JobState is the lifecycle state of one tracking run.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobError     JobState = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// RowResult is the per-row snapshot exposed to status pollers.
// Price is nil while the row is pending or when the fetch failed;
// it must never be rendered as zero.
type RowResult struct {
	Link  string `json:"link"`
	Var1  string `json:"var1"`
	Var2  string `json:"var2"`
	Price *int64 `json:"price"`
}

// JobSnapshot is a consistent point-in-time view of a run, safe to
// serialize while workers are still fetching.
type JobSnapshot struct {
	ID         string      `json:"id"`
	State      JobState    `json:"status"`
	Progress   int         `json:"progress"`
	Total      int         `json:"total"`
	Results    []RowResult `json:"results"`
	Error      string      `json:"error,omitempty"`
	OutputPath string      `json:"-"`
}
