package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the id is unknown or the record has been reaped.
	ErrNotFound = errors.New("job not found")

	// ErrQueueFull is admission-time backpressure; the caller should retry
	// later.
	ErrQueueFull = errors.New("queue full")

	// ErrInvalidTransition means a state-transition precondition was
	// violated. Under single-owner dispatch this is unreachable; it is
	// logged as an internal fault and never surfaced to callers.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store is the authoritative in-memory job table. Every mutation goes
// through a transition method that holds the lock and checks the state
// machine, so two actors can never race the same job out of a state.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create inserts a new pending record and returns a copy of it. IDs are
// random UUIDs, so collision is not a reachable failure mode.
func (s *Store) Create(req Request) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		Request:   req,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.jobs[job.ID] = job
	return *job
}

// Get returns a copy of the record, so readers never share mutable state
// with the worker that owns the job.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SetRunning moves a job from pending to running and stamps StartedAt.
func (s *Store) SetRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("set running %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusPending {
		return fmt.Errorf("set running %s from %s: %w", id, job.Status, ErrInvalidTransition)
	}
	now := time.Now()
	job.Status = StatusRunning
	job.StartedAt = &now
	return nil
}

// SetCompleted moves a job from running to completed, recording its result
// exactly once.
func (s *Store) SetCompleted(id string, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("set completed %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusRunning {
		return fmt.Errorf("set completed %s from %s: %w", id, job.Status, ErrInvalidTransition)
	}
	now := time.Now()
	job.Status = StatusCompleted
	job.Result = result
	job.CompletedAt = &now
	return nil
}

// SetFailed moves a job from running to failed, recording the failure
// exactly once.
func (s *Store) SetFailed(id string, jobErr JobError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("set failed %s: %w", id, ErrNotFound)
	}
	if job.Status != StatusRunning {
		return fmt.Errorf("set failed %s from %s: %w", id, job.Status, ErrInvalidTransition)
	}
	now := time.Now()
	job.Status = StatusFailed
	job.Err = &jobErr
	job.CompletedAt = &now
	return nil
}

// TerminalOlderThan returns the ids of terminal jobs whose CompletedAt is
// before cutoff. Pending and running jobs are never included, regardless of
// age.
func (s *Store) TerminalOlderThan(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Delete removes a record. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

// Len reports how many records are currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
