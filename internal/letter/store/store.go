// Package store persists letter requests. Implementations come in pairs: an
// in-memory store for development and unit tests and a postgres store for
// deployment, both exposing the same Execute callback for atomic
// validate-then-mutate.
package store

import (
	"context"

	"suratdesa/internal/letter/models"
	id "suratdesa/pkg/domain"
)

// Store is the persistence port the state machine mutates through.
//
// Execute loads the request, runs validate, and only if validation passes
// applies mutate and persists the result, all while holding the store's lock
// (mutex or SELECT FOR UPDATE) so no concurrent transition can interleave.
//
// The record callback on Create and Execute runs inside the same unit as the
// write itself: in postgres it receives a context carrying the open
// transaction, in memory it runs before the staged state is committed. When
// record returns an error the whole unit is abandoned and the stored request
// is left exactly as it was. A nil record is allowed.
type Store interface {
	Create(ctx context.Context, request *models.LetterRequest,
		record func(ctx context.Context) error) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.LetterRequest, error)
	ListByRequester(ctx context.Context, requesterID id.ResidentID) ([]*models.LetterRequest, error)
	Execute(ctx context.Context, requestID id.RequestID,
		validate func(*models.LetterRequest) error,
		mutate func(*models.LetterRequest),
		record func(ctx context.Context) error) (*models.LetterRequest, error)
}
