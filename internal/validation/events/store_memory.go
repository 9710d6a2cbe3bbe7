package events

import (
	"context"
	"sync"

	id "enrollcheck/pkg/domain"
)

// InMemoryStore keeps completion events per process. Enough for dev and
// tests; a durable sink can replace it behind the Store interface.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ProcessID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ProcessID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ProcessID] = append(s.events[event.ProcessID], event)
	return nil
}

func (s *InMemoryStore) ListByProcess(_ context.Context, processID id.ProcessID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[processID]...), nil
}
