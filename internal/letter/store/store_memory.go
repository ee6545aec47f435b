package store

import (
	"context"
	"sync"

	"suratdesa/internal/letter/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// InMemory keeps requests in a map guarded by a RWMutex. Reads hand out
// clones so callers can never mutate stored state behind the lock's back.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.LetterRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.LetterRequest)}
}

func (s *InMemory) Create(ctx context.Context, request *models.LetterRequest,
	record func(ctx context.Context) error) error {

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	if record != nil {
		if err := record(ctx); err != nil {
			return err
		}
	}
	s.requests[request.ID] = request.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.LetterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return request.Clone(), nil
}

func (s *InMemory) ListByRequester(_ context.Context, requesterID id.ResidentID) ([]*models.LetterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LetterRequest
	for _, request := range s.requests {
		if request.RequesterID == requesterID {
			out = append(out, request.Clone())
		}
	}
	return out, nil
}

// Execute stages the mutation on a clone and commits it only after record
// succeeds, so a failed record leaves the stored request untouched.
func (s *InMemory) Execute(ctx context.Context, requestID id.RequestID,
	validate func(*models.LetterRequest) error,
	mutate func(*models.LetterRequest),
	record func(ctx context.Context) error) (*models.LetterRequest, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	staged := request.Clone()
	if err := validate(staged); err != nil {
		return nil, err
	}
	mutate(staged)
	if record != nil {
		if err := record(ctx); err != nil {
			return nil, err
		}
	}
	s.requests[requestID] = staged
	return staged.Clone(), nil
}
