//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "suratdesa/internal/platform/postgres"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/testutil/containers"
)

func TestPostgresTrail_Integration(t *testing.T) {
	ctx := context.Background()
	pgc := containers.NewPostgresContainer(t)
	require.NoError(t, pg.Migrate(ctx, pgc.DB))

	trail := NewPostgresTrail(pgc.DB)
	requestID := id.NewRequestID()
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	// Two events with the identical timestamp still read back in insertion
	// order thanks to the position column.
	actions := []Action{ActionCreated, ActionVerified, ActionVerified, ActionApproved}
	for _, action := range actions {
		event, err := NewEvent(requestID, "actor-1", "rt", action, "", now)
		require.NoError(t, err)
		require.NoError(t, trail.Append(ctx, event))
	}

	events, err := trail.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, events, len(actions))
	for i, action := range actions {
		assert.Equal(t, action, events[i].Action)
		assert.Equal(t, requestID, events[i].RequestID)
	}

	events, err = trail.ListByRequest(ctx, id.NewRequestID())
	require.NoError(t, err)
	assert.Empty(t, events)
}
