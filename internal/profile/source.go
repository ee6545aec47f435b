// Package profile exposes resident profile attributes under their canonical
// names ("nama", "nik", "alamat", ...). The template engine resolves
// auto-fill fields against these maps.
package profile

import (
	"context"
	"sync"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// Attributes maps canonical attribute names to a resident's values.
type Attributes map[string]string

// Source yields a resident's profile attributes.
type Source interface {
	FindByResident(ctx context.Context, residentID id.ResidentID) (Attributes, error)
}

// InMemorySource is a seedable Source for development and tests.
type InMemorySource struct {
	mu       sync.RWMutex
	profiles map[id.ResidentID]Attributes
}

func NewInMemorySource() *InMemorySource {
	return &InMemorySource{profiles: make(map[id.ResidentID]Attributes)}
}

func (s *InMemorySource) Put(residentID id.ResidentID, attrs Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(Attributes, len(attrs))
	for name, value := range attrs {
		copied[name] = value
	}
	s.profiles[residentID] = copied
}

func (s *InMemorySource) FindByResident(_ context.Context, residentID id.ResidentID) (Attributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.profiles[residentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := make(Attributes, len(attrs))
	for name, value := range attrs {
		copied[name] = value
	}
	return copied, nil
}
