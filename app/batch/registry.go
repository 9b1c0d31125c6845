package batch

import (
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// maxRuns bounds how many finished runs the registry remembers
const maxRuns = 100

type Run struct {
	ID          string     `json:"id"`
	ContentType string     `json:"content_type"`
	Status      Status     `json:"status"`
	State       State      `json:"state"`
	Progress    Progress   `json:"progress"`
	Results     []bool     `json:"-"`
	Summary     string     `json:"summary,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Built returns how many items were processed successfully
func (r Run) Built() int {
	n := 0
	for _, ok := range r.Results {
		if ok {
			n++
		}
	}
	return n
}

// Registry keeps batch runs in memory for status reporting
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Create registers a queued run
func (r *Registry) Create(contentType string) Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &Run{
		ID:          ulid.Make().String(),
		ContentType: contentType,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
	}
	r.runs[run.ID] = run
	r.evict()

	return *run
}

// Get returns a snapshot of a run
func (r *Registry) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return run.snapshot(), true
}

// List returns snapshots of all runs, newest first
func (r *Registry) List() []Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run.snapshot())
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].ID > runs[j].ID
	})
	return runs
}

// Remove forgets a run, used when a queued run could not be scheduled
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.runs, id)
}

// Active reports whether a run of contentType is queued or running
func (r *Registry) Active(contentType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.ContentType == contentType && (run.Status == StatusQueued || run.Status == StatusRunning) {
			return true
		}
	}
	return false
}

// Abandon fails a run that was queued but never started
func (r *Registry) Abandon(id string) {
	r.update(id, func(run *Run) {
		if run.Status != StatusQueued {
			return
		}
		now := time.Now()
		run.Status = StatusFailed
		run.Summary = FailureMessage
		run.FinishedAt = &now
	})
}

func (r *Registry) start(id string) {
	r.update(id, func(run *Run) {
		now := time.Now()
		run.Status = StatusRunning
		run.StartedAt = &now
	})
}

func (r *Registry) record(id string, state State, progress Progress, results []bool) {
	r.update(id, func(run *Run) {
		run.State = state
		run.Progress = progress
		run.Results = append(run.Results, results...)
	})
}

func (r *Registry) finish(id string, status Status, summary string) {
	r.update(id, func(run *Run) {
		now := time.Now()
		run.Status = status
		run.Summary = summary
		run.FinishedAt = &now
	})
}

func (r *Registry) update(id string, fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run, ok := r.runs[id]; ok {
		fn(run)
	}
}

// evict drops the oldest finished runs beyond maxRuns. Callers hold the lock.
func (r *Registry) evict() {
	if len(r.runs) <= maxRuns {
		return
	}

	var finished []*Run
	for _, run := range r.runs {
		if run.FinishedAt != nil {
			finished = append(finished, run)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].ID < finished[j].ID
	})

	for _, run := range finished {
		if len(r.runs) <= maxRuns {
			return
		}
		delete(r.runs, run.ID)
	}
}

func (run *Run) snapshot() Run {
	cp := *run
	cp.Results = append([]bool(nil), run.Results...)
	return cp
}
