// Package notify fans committed lifecycle events out to delivery channels.
// Dispatch happens after the state transition is durable; a failing channel
// is logged by the caller and never rolls back or blocks the transition.
package notify

import (
	"context"
	"log/slog"

	"suratdesa/internal/audit"
)

// Dispatcher receives every committed lifecycle event.
type Dispatcher interface {
	OnEvent(ctx context.Context, event audit.Event) error
}

// SlogDispatcher logs events instead of delivering them. Used in development
// and as the fallback when no broker is configured.
type SlogDispatcher struct {
	logger *slog.Logger
}

func NewSlogDispatcher(logger *slog.Logger) *SlogDispatcher {
	return &SlogDispatcher{logger: logger}
}

func (d *SlogDispatcher) OnEvent(ctx context.Context, event audit.Event) error {
	d.logger.InfoContext(ctx, "lifecycle event",
		"request_id", event.RequestID.String(),
		"action", string(event.Action),
		"actor_role", event.ActorRole,
	)
	return nil
}
