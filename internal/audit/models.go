// Package audit owns the append-only lifecycle trail of a letter request.
// Events are written by the state machine inside the same critical section as
// the status change and are never mutated or removed afterwards; insertion
// order is chronological order.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
)

// Action is the lifecycle action an audit event records.
type Action string

const (
	ActionCreated           Action = "created"
	ActionVerified          Action = "verified"
	ActionRejected          Action = "rejected"
	ActionRevisionRequested Action = "revision_requested"
	ActionApproved          Action = "approved"
)

// NoteRequired reports whether this action must carry a free-text note.
// Rejections and revision requests are meaningless to the requester without
// a reason.
func (a Action) NoteRequired() bool {
	return a == ActionRejected || a == ActionRevisionRequested
}

// Event is one entry in a request's lifecycle trail.
type Event struct {
	ID        uuid.UUID    `json:"id"`
	RequestID id.RequestID `json:"request_id"`
	ActorID   id.ActorID   `json:"actor_id"`
	ActorRole string       `json:"actor_role"`
	Action    Action       `json:"action"`
	Note      string       `json:"note,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent builds a validated audit event.
func NewEvent(requestID id.RequestID, actorID id.ActorID, actorRole string, action Action, note string, now time.Time) (Event, error) {
	if requestID.IsNil() {
		return Event{}, dErrors.New(dErrors.CodeValidation, "audit event requires a request id")
	}
	if actorID.IsZero() {
		return Event{}, dErrors.New(dErrors.CodeValidation, "audit event requires an actor")
	}
	if action.NoteRequired() && note == "" {
		return Event{}, dErrors.New(dErrors.CodeValidation, "a note is required for "+string(action))
	}
	return Event{
		ID:        uuid.New(),
		RequestID: requestID,
		ActorID:   actorID,
		ActorRole: actorRole,
		Action:    action,
		Note:      note,
		Timestamp: now,
	}, nil
}
