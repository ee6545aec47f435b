package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects and pings. Returns nil when the DSN is empty (postgres not
// configured; stores fall back to memory).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate creates the schema this service owns. Idempotent; run on startup
// and by integration tests against throwaway containers.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS letter_requests (
			id               UUID PRIMARY KEY,
			requester_id     TEXT NOT NULL,
			location_tag     TEXT NOT NULL DEFAULT '',
			letter_type_id   TEXT NOT NULL,
			status           TEXT NOT NULL,
			attachments      JSONB NOT NULL DEFAULT '{}',
			reference_number TEXT NOT NULL DEFAULT '',
			data_fields      JSONB NOT NULL DEFAULT '{}',
			resume_status    TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS letter_requests_requester_idx ON letter_requests (requester_id)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			position    BIGSERIAL PRIMARY KEY,
			id          UUID NOT NULL UNIQUE,
			request_id  UUID NOT NULL,
			actor_id    TEXT NOT NULL,
			actor_role  TEXT NOT NULL,
			action      TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS audit_events_request_idx ON audit_events (request_id)`,
		`CREATE TABLE IF NOT EXISTS template_field_mappings (
			letter_type_id TEXT PRIMARY KEY,
			is_fillable    BOOLEAN NOT NULL DEFAULT FALSE,
			auto_fill      TEXT[] NOT NULL DEFAULT '{}',
			manual_input   TEXT[] NOT NULL DEFAULT '{}'
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
