package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/tx"
)

// PostgresTrail persists audit events in the audit_events table. The table
// has no UPDATE or DELETE path in this codebase; ordering is by a bigserial
// position column so two events in the same transaction still read back in
// insertion order.
type PostgresTrail struct {
	db *sql.DB
}

func NewPostgresTrail(db *sql.DB) *PostgresTrail {
	return &PostgresTrail{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append inserts the event. When the context carries an open transaction
// (the request store's Execute puts one there), the insert joins it and
// commits or aborts with the state change it records.
func (s *PostgresTrail) Append(ctx context.Context, event Event) error {
	var db execer = s.db
	if txn, ok := tx.From(ctx); ok {
		db = txn
	}
	query := `
		INSERT INTO audit_events (id, request_id, actor_id, actor_role, action, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.ExecContext(ctx, query,
		event.ID,
		event.RequestID.String(),
		string(event.ActorID),
		event.ActorRole,
		string(event.Action),
		event.Note,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresTrail) ListByRequest(ctx context.Context, requestID id.RequestID) ([]Event, error) {
	query := `
		SELECT id, request_id, actor_id, actor_role, action, note, occurred_at
		FROM audit_events
		WHERE request_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, requestID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event    Event
			rawReqID string
		)
		if err := rows.Scan(&event.ID, &rawReqID, &event.ActorID, &event.ActorRole, &event.Action, &event.Note, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		reqUUID, err := uuid.Parse(rawReqID)
		if err != nil {
			return nil, fmt.Errorf("parse audit request id: %w", err)
		}
		event.RequestID = id.RequestID(reqUUID)
		events = append(events, event)
	}
	return events, rows.Err()
}
