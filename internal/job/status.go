package job

import (
	"sync"
	"time"

	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
)

// Status is the shared mutable state of one run. Workers mutate it as
// rows complete; pollers read consistent snapshots at any time without
// blocking the workers. Terminal states are never left.
type Status struct {
	mu sync.Mutex

	id         string
	state      model.JobState
	progress   int
	total      int
	results    []model.RowResult
	errMsg     string
	outputPath string

	createdAt  time.Time
	finishedAt time.Time
}

// NewStatus creates a queued status for the given job id.
func NewStatus(id string) *Status {
	return &Status{
		id:        id,
		state:     model.JobQueued,
		createdAt: time.Now(),
	}
}

// ID returns the job identifier.
func (s *Status) ID() string { return s.id }

// Start transitions to running and seeds one pending result slot per
// product row, in sheet order.
func (s *Status) Start(rows []*model.ProductRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = model.JobRunning
	s.total = len(rows)
	s.progress = 0
	s.results = make([]model.RowResult, len(rows))
	for i, r := range rows {
		s.results[i] = model.RowResult{Link: r.Link, Var1: r.Var1, Var2: r.Var2}
	}
}

// RecordRow marks one row as done, filling in its price (nil when the
// fetch failed) and incrementing progress. The increment and the
// result update are indivisible with respect to concurrent workers.
func (s *Status) RecordRow(idx int, price *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.results) {
		return
	}
	s.results[idx].Price = price
	if s.progress < s.total {
		s.progress++
	}
}

// Complete transitions to the completed terminal state.
func (s *Status) Complete(outputPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = model.JobCompleted
	s.outputPath = outputPath
	s.finishedAt = time.Now()
}

// Fail transitions to the error terminal state. Reserved for run-level
// fatal conditions; row-level fetch failures never end up here.
func (s *Status) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = model.JobError
	s.errMsg = msg
	s.finishedAt = time.Now()
}

// Snapshot returns a copy safe to serialize while workers run.
func (s *Status) Snapshot() model.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]model.RowResult, len(s.results))
	copy(results, s.results)

	return model.JobSnapshot{
		ID:         s.id,
		State:      s.state,
		Progress:   s.progress,
		Total:      s.total,
		Results:    results,
		Error:      s.errMsg,
		OutputPath: s.outputPath,
	}
}

// finishedBefore reports whether the job reached a terminal state
// before the given instant.
func (s *Status) finishedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Terminal() && s.finishedAt.Before(t)
}
