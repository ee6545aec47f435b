package audit

import (
	"context"

	id "suratdesa/pkg/domain"
)

// Trail is the append-only event log for letter requests. Implementations
// must preserve insertion order per request and never expose mutation.
type Trail interface {
	Append(ctx context.Context, event Event) error
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]Event, error)
}
