package store

import (
	"context"
	"sync"

	"suratdesa/internal/letter/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// TypeStore resolves letter type definitions. Types are configuration, not
// workflow state: they change through administration, rarely.
type TypeStore interface {
	FindByID(ctx context.Context, letterType id.LetterTypeID) (models.LetterType, error)
	List(ctx context.Context) ([]models.LetterType, error)
}

// InMemoryTypeStore is the seedable TypeStore for development and tests.
type InMemoryTypeStore struct {
	mu    sync.RWMutex
	types map[id.LetterTypeID]models.LetterType
}

func NewInMemoryTypeStore() *InMemoryTypeStore {
	return &InMemoryTypeStore{types: make(map[id.LetterTypeID]models.LetterType)}
}

func (s *InMemoryTypeStore) Put(letterType models.LetterType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[letterType.ID] = letterType
}

func (s *InMemoryTypeStore) FindByID(_ context.Context, letterTypeID id.LetterTypeID) (models.LetterType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	letterType, ok := s.types[letterTypeID]
	if !ok {
		return models.LetterType{}, sentinel.ErrNotFound
	}
	return letterType, nil
}

func (s *InMemoryTypeStore) List(_ context.Context) ([]models.LetterType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LetterType, 0, len(s.types))
	for _, letterType := range s.types {
		out = append(out, letterType)
	}
	return out, nil
}

// SeedLetterTypes registers the default village letter catalogue so a fresh
// instance is usable without an admin console.
func SeedLetterTypes(s *InMemoryTypeStore) {
	s.Put(models.LetterType{
		ID:     "surat-keterangan-domisili",
		Code:   "474.1",
		Name:   "Surat Keterangan Domisili",
		Levels: []models.VerificationLevel{models.LevelNeighborhood, models.LevelDistrict},
	})
	s.Put(models.LetterType{
		ID:     "surat-keterangan-usaha",
		Code:   "503",
		Name:   "Surat Keterangan Usaha",
		Levels: []models.VerificationLevel{models.LevelNeighborhood, models.LevelDistrict},
	})
	s.Put(models.LetterType{
		ID:     "surat-pengantar-ktp",
		Code:   "471.13",
		Name:   "Surat Pengantar KTP",
		Levels: []models.VerificationLevel{models.LevelNeighborhood},
	})
}
