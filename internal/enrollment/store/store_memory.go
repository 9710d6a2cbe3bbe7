package store

import (
	"context"
	"fmt"
	"sync"

	"enrollcheck/internal/enrollment/models"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
)

// InMemory holds enrollment records in a map. Used in development, demos,
// and as the real component behind unit tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.SubjectID]*models.Enrollment
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.SubjectID]*models.Enrollment)}
}

// Put inserts or replaces a record. Exposed for seeding and tests; the
// validation path never writes.
func (s *InMemory) Put(rec *models.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.SubjectID] = &cp
}

func (s *InMemory) Exists(_ context.Context, subject id.SubjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.records[subject]
	return exists, nil
}

func (s *InMemory) FindByUUID(_ context.Context, subject id.SubjectID) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.records[subject]
	if !exists {
		return nil, fmt.Errorf("enrollment %s: %w", subject, sentinel.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemory) ListUUIDs(_ context.Context) ([]id.SubjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uuids := make([]id.SubjectID, 0, len(s.records))
	for subject := range s.records {
		uuids = append(uuids, subject)
	}
	return uuids, nil
}
