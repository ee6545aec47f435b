package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suratdesa/internal/letter/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
	"suratdesa/pkg/testutil"
)

func newStoredRequest(t *testing.T) *models.LetterRequest {
	t.Helper()
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	request, err := models.NewLetterRequest(id.NewRequestID(), "resident-1", "RT03/RW05", "surat-keterangan-domisili", map[string]string{"keperluan": "bank"}, now)
	require.NoError(t, err)
	return request
}

func TestInMemory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	request := newStoredRequest(t)

	require.NoError(t, s.Create(ctx, request, nil))
	assert.ErrorIs(t, s.Create(ctx, request, nil), sentinel.ErrConflict)

	found, err := s.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)

	_, err = s.FindByID(ctx, id.NewRequestID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_ReadsDoNotAliasStoredState(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	request := newStoredRequest(t)
	require.NoError(t, s.Create(ctx, request, nil))

	found, err := s.FindByID(ctx, request.ID)
	require.NoError(t, err)
	found.Status = models.StatusRejected
	found.DataFields["keperluan"] = "mutated"

	again, err := s.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
	assert.Equal(t, "bank", again.DataFields["keperluan"])
}

func TestInMemory_ExecuteValidatesBeforeMutating(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	request := newStoredRequest(t)
	require.NoError(t, s.Create(ctx, request, nil))

	testutil.When(t, "validation fails", func(t *testing.T) {
		_, err := s.Execute(ctx, request.ID,
			func(r *models.LetterRequest) error { return sentinel.ErrInvalidState },
			func(r *models.LetterRequest) { r.Status = models.StatusCompleted },
			nil,
		)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)

		testutil.Then(t, "the stored request is untouched", func(t *testing.T) {
			found, err := s.FindByID(ctx, request.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, found.Status)
		})
	})

	testutil.When(t, "validation passes", func(t *testing.T) {
		updated, err := s.Execute(ctx, request.ID,
			func(r *models.LetterRequest) error { return nil },
			func(r *models.LetterRequest) { r.Status = models.StatusAwaitingNeighborhood },
			nil,
		)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAwaitingNeighborhood, updated.Status)
	})
}

func TestInMemory_ExecuteAbortsWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	request := newStoredRequest(t)
	require.NoError(t, s.Create(ctx, request, nil))

	recordErr := errors.New("event log unavailable")
	_, err := s.Execute(ctx, request.ID,
		func(r *models.LetterRequest) error { return nil },
		func(r *models.LetterRequest) { r.Status = models.StatusAwaitingNeighborhood },
		func(context.Context) error { return recordErr },
	)
	assert.ErrorIs(t, err, recordErr)

	found, err := s.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, found.Status)
}

func TestInMemory_CreateAbortsWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	request := newStoredRequest(t)

	recordErr := errors.New("event log unavailable")
	err := s.Create(ctx, request, func(context.Context) error { return recordErr })
	assert.ErrorIs(t, err, recordErr)

	_, err = s.FindByID(ctx, request.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_ListByRequester(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	mine := newStoredRequest(t)
	require.NoError(t, s.Create(ctx, mine, nil))

	other := newStoredRequest(t)
	other.RequesterID = "resident-2"
	require.NoError(t, s.Create(ctx, other, nil))

	out, err := s.ListByRequester(ctx, "resident-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, mine.ID, out[0].ID)
}

func TestInMemoryTypeStore_Seeded(t *testing.T) {
	ctx := context.Background()
	types := NewInMemoryTypeStore()
	SeedLetterTypes(types)

	domisili, err := types.FindByID(ctx, "surat-keterangan-domisili")
	require.NoError(t, err)
	assert.Equal(t, "474.1", domisili.Code)
	assert.Equal(t, []models.VerificationLevel{models.LevelNeighborhood, models.LevelDistrict}, domisili.Levels)

	_, err = types.FindByID(ctx, "surat-tidak-ada")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	all, err := types.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
