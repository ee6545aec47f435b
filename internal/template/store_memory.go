package template

import (
	"context"
	"sync"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// MappingStore persists field mappings per letter type.
type MappingStore interface {
	Save(ctx context.Context, mapping *FieldMapping) error
	FindByLetterType(ctx context.Context, letterType id.LetterTypeID) (*FieldMapping, error)
}

// InMemoryMappingStore guards mappings with a RWMutex and hands out clones.
type InMemoryMappingStore struct {
	mu       sync.RWMutex
	mappings map[id.LetterTypeID]*FieldMapping
}

func NewInMemoryMappingStore() *InMemoryMappingStore {
	return &InMemoryMappingStore{mappings: make(map[id.LetterTypeID]*FieldMapping)}
}

func (s *InMemoryMappingStore) Save(_ context.Context, mapping *FieldMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[mapping.LetterType] = mapping.Clone()
	return nil
}

func (s *InMemoryMappingStore) FindByLetterType(_ context.Context, letterType id.LetterTypeID) (*FieldMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, ok := s.mappings[letterType]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return mapping.Clone(), nil
}
