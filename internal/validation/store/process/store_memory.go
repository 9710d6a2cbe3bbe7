package process

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enrollcheck/internal/validation/models"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
)

// InMemory keeps process records in a mutex-guarded map. The compare-and-set
// in UpdateStatus happens under the write lock, which gives the same
// single-claim guarantee as the conditional UPDATE in the Postgres backend.
type InMemory struct {
	mu        sync.RWMutex
	processes map[id.ProcessID]*models.ValidationProcess
	clock     func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		processes: make(map[id.ProcessID]*models.ValidationProcess),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Create(_ context.Context, subject id.SubjectID) (*models.ValidationProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := id.NewProcessID()
	// uuid collisions are not a practical concern, but the contract says a
	// process id is never reused, so guard anyway.
	for {
		if _, exists := s.processes[pid]; !exists {
			break
		}
		pid = id.NewProcessID()
	}

	now := s.clock().UTC()
	p := &models.ValidationProcess{
		ProcessID: pid,
		SubjectID: subject,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.processes[pid] = p
	return p.Clone(), nil
}

func (s *InMemory) Fetch(_ context.Context, processID id.ProcessID) (*models.ValidationProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.processes[processID]
	if !exists {
		return nil, fmt.Errorf("process %s: %w", processID, sentinel.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *InMemory) UpdateStatus(_ context.Context, processID id.ProcessID, tr Transition) (*models.ValidationProcess, error) {
	if !tr.From.CanTransitionTo(tr.To) {
		return nil, fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, sentinel.ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.processes[processID]
	if !exists {
		return nil, fmt.Errorf("process %s: %w", processID, sentinel.ErrNotFound)
	}
	if p.Status != tr.From {
		return nil, fmt.Errorf("process %s is %s, expected %s: %w", processID, p.Status, tr.From, sentinel.ErrInvalidState)
	}

	p.Status = tr.To
	p.Message = tr.Message
	p.ErrorDetail = nil
	if tr.Detail != nil {
		d := *tr.Detail
		p.ErrorDetail = &d
	}
	now := s.clock().UTC()
	if now.Before(p.UpdatedAt) {
		now = p.UpdatedAt
	}
	p.UpdatedAt = now
	return p.Clone(), nil
}
