package job

import (
	"sort"
	"sync"
	"time"
)

// Registry keeps the in-memory state of in-flight and recently
// finished runs, addressable by job id. It is bounded: finished jobs
// are evicted after a TTL, and the oldest finished jobs are dropped
// when capacity is exceeded. Nothing survives a process restart and
// callers must not depend on that.
type Registry struct {
	mu       sync.Mutex
	jobs     map[string]*Status
	added    map[string]time.Time
	capacity int
	ttl      time.Duration
}

// NewRegistry creates a registry holding at most capacity jobs, with
// finished jobs evicted ttl after they reach a terminal state.
func NewRegistry(capacity int, ttl time.Duration) *Registry {
	if capacity <= 0 {
		capacity = 64
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		jobs:     make(map[string]*Status),
		added:    make(map[string]time.Time),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Add registers a job.
func (r *Registry) Add(s *Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[s.ID()] = s
	r.added[s.ID()] = time.Now()
	r.purgeLocked(time.Now())
}

// Get looks up a job by id.
func (r *Registry) Get(id string) (*Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked(time.Now())
	s, ok := r.jobs[id]
	return s, ok
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// purgeLocked drops finished jobs past their TTL, then enforces the
// capacity bound by dropping the oldest finished jobs. Jobs that are
// still running are never evicted.
func (r *Registry) purgeLocked(now time.Time) {
	cutoff := now.Add(-r.ttl)
	for id, s := range r.jobs {
		if s.finishedBefore(cutoff) {
			delete(r.jobs, id)
			delete(r.added, id)
		}
	}

	if len(r.jobs) <= r.capacity {
		return
	}

	type aged struct {
		id string
		at time.Time
	}
	finished := make([]aged, 0, len(r.jobs))
	for id, s := range r.jobs {
		if s.finishedBefore(now) {
			finished = append(finished, aged{id: id, at: r.added[id]})
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].at.Before(finished[j].at) })

	for _, f := range finished {
		if len(r.jobs) <= r.capacity {
			break
		}
		delete(r.jobs, f.id)
		delete(r.added, f.id)
	}
}
