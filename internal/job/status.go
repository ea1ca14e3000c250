package job

import (
	"sync"
	"time"
)

// State is the coarse job lifecycle state.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateUnknown   State = "unknown"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage names reported in the status message while running.
const (
	StageDownloading = "downloading"
	StageConfiguring = "configuring"
	StageRendering   = "rendering"
	StageUploading   = "uploading"
)

// Status is the externally visible record for one job. Message carries the
// stage name while running and the reason once failed.
type Status struct {
	JobID      string `json:"jobId"`
	State      State  `json:"state"`
	Message    string `json:"message"`
	FinishedAt int64  `json:"finishedAt,omitempty"`
}

// Unknown returns the synthetic record served for ids the store has never
// seen.
func Unknown(jobID string) Status {
	return Status{JobID: jobID, State: StateUnknown, Message: "no-such-job"}
}

// Store is an in-memory job id to status mapping. Writes come from the main
// loop; reads come from HTTP workers, so access is guarded by one RWMutex.
// A record that has reached a terminal state is never overwritten.
type Store struct {
	mu      sync.RWMutex
	records map[string]Status
}

// NewStore creates an empty status store.
func NewStore() *Store {
	return &Store{records: make(map[string]Status)}
}

// Set writes the status for a job, replacing any earlier record. The write
// is dropped and Set returns false if the existing record is terminal.
func (s *Store) Set(st Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.records[st.JobID]; ok && prev.State.Terminal() {
		return false
	}
	s.records[st.JobID] = st
	return true
}

// SetQueued records a job as queued.
func (s *Store) SetQueued(jobID string) bool {
	return s.Set(Status{JobID: jobID, State: StateQueued, Message: "queued"})
}

// SetRunning records a job as running with the given stage name.
func (s *Store) SetRunning(jobID, stage string) bool {
	return s.Set(Status{JobID: jobID, State: StateRunning, Message: stage})
}

// SetTerminal records the final state for a job with a finish timestamp.
func (s *Store) SetTerminal(jobID string, state State, message string) bool {
	return s.Set(Status{
		JobID:      jobID,
		State:      state,
		Message:    message,
		FinishedAt: time.Now().Unix(),
	})
}

// Get returns a copy of the status for a job.
func (s *Store) Get(jobID string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.records[jobID]
	return st, ok
}

// Len returns the number of records retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
