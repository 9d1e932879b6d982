package queue

import "sync"

// StatusStore is the shared job-status map, the only mutable state
// shared across jobs. Terminal statuses are read-once: the first
// Resolve call that observes Complete or Error removes the entry, so
// at most one poller ever receives the terminal payload.
type StatusStore struct {
	mu   sync.Mutex
	jobs map[string]Status
}

// NewStatusStore creates an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{jobs: make(map[string]Status)}
}

// Set records the current status for a job.
func (s *StatusStore) Set(jobID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = status
}

// Get returns the current status without consuming it. Used by
// observers (the websocket progress stream) that must not steal the
// one-shot terminal read.
func (s *StatusStore) Get(jobID string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.jobs[jobID]
	return status, ok
}

// Resolve returns the current status, atomically removing the entry
// when it is terminal. In-flight statuses are returned unchanged.
func (s *StatusStore) Resolve(jobID string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[jobID]
	if !ok {
		return Status{}, false
	}
	if status.Terminal() {
		delete(s.jobs, jobID)
	}
	return status, true
}
