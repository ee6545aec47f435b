package audit

import (
	"context"
	"sync"

	id "suratdesa/pkg/domain"
)

// InMemoryTrail keeps per-request event slices guarded by a RWMutex.
// Append-only by construction: there is no delete or update path.
type InMemoryTrail struct {
	mu     sync.RWMutex
	events map[id.RequestID][]Event
}

func NewInMemoryTrail() *InMemoryTrail {
	return &InMemoryTrail{events: make(map[id.RequestID][]Event)}
}

func (s *InMemoryTrail) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RequestID] = append(s.events[event.RequestID], event)
	return nil
}

func (s *InMemoryTrail) ListByRequest(_ context.Context, requestID id.RequestID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[requestID]...), nil
}
