package jobs

import (
	"sync"
	"time"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the observable state of one long-running operation, keyed by the
// content id that triggered it.
type Job struct {
	Status    Status     `json:"status"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Registry tracks in-flight operations so any observer can read their
// outcome after the triggering caller is gone (a closed and reopened UI,
// for instance). Observers read snapshots, never the task itself.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Start registers a running job for the key, replacing any previous entry.
func (r *Registry) Start(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[key] = &Job{Status: StatusRunning, StartedAt: time.Now().UTC()}
}

// Complete marks the job done and stores its result. A completion for an
// unknown key is recorded anyway so late observers still see the outcome.
func (r *Registry) Complete(key, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.ensure(key)
	now := time.Now().UTC()
	job.Status = StatusDone
	job.Result = result
	job.EndedAt = &now
}

// Fail marks the job failed with the given message.
func (r *Registry) Fail(key, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.ensure(key)
	now := time.Now().UTC()
	job.Status = StatusFailed
	job.Error = message
	job.EndedAt = &now
}

// Clear removes the entry for the key, typically after its outcome has
// been consumed.
func (r *Registry) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, key)
}

// Get returns a snapshot of the job for the key.
func (r *Registry) Get(key string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[key]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Snapshot returns a copy of all tracked jobs.
func (r *Registry) Snapshot() map[string]Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]Job, len(r.jobs))
	for key, job := range r.jobs {
		snapshot[key] = *job
	}
	return snapshot
}

func (r *Registry) ensure(key string) *Job {
	job, ok := r.jobs[key]
	if !ok {
		job = &Job{StartedAt: time.Now().UTC()}
		r.jobs[key] = job
	}
	return job
}
