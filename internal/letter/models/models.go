package models

import (
	"time"

	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
)

// Status is the closed set of lifecycle states a letter request moves
// through. Legality of every transition is decided by the table in
// transitions.go, never re-derived at call sites.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAwaitingNeighborhood  Status = "awaiting_neighborhood_verification"
	StatusAwaitingDistrict      Status = "awaiting_district_verification"
	StatusAwaitingFinalApproval Status = "awaiting_final_approval"
	StatusCompleted             Status = "completed"
	StatusRejected              Status = "rejected"
	StatusRevisionRequested     Status = "revision_requested"
)

// IsTerminal reports whether the request can never transition again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// IsAwaiting reports whether the request sits in a verification or approval
// queue, i.e. some authority role is expected to act next.
func (s Status) IsAwaiting() bool {
	switch s {
	case StatusAwaitingNeighborhood, StatusAwaitingDistrict, StatusAwaitingFinalApproval:
		return true
	}
	return false
}

// Role is a workflow actor role. RT and RW are the Indonesian neighborhood
// and district community tiers; their verification precedes administrative
// approval.
type Role string

const (
	RoleResident     Role = "resident"
	RoleNeighborhood Role = "rt"
	RoleDistrict     Role = "rw"
	RoleAdmin        Role = "admin"
)

// VerificationLevel keys the per-tier cover letter attachments.
type VerificationLevel string

const (
	LevelNeighborhood VerificationLevel = "neighborhood"
	LevelDistrict     VerificationLevel = "district"
)

// AttachmentRef is an opaque handle to an uploaded file plus its upload time.
// Storage and retrieval of the bytes belong to the attachment collaborator.
type AttachmentRef struct {
	Handle     string    `json:"handle"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (r AttachmentRef) IsZero() bool { return r.Handle == "" }

// LetterType is a reusable letter definition: which verification tiers a
// request must pass, and the classification code used in reference numbers.
// A type may skip the district tier entirely.
type LetterType struct {
	ID     id.LetterTypeID     `json:"id"`
	Code   string              `json:"code"`
	Name   string              `json:"name"`
	Levels []VerificationLevel `json:"levels"`
}

// FirstAwaitingStatus is the state a freshly submitted request enters.
func (t LetterType) FirstAwaitingStatus() Status {
	if len(t.Levels) > 0 && t.Levels[0] == LevelDistrict {
		return StatusAwaitingDistrict
	}
	if len(t.Levels) == 0 {
		return StatusAwaitingFinalApproval
	}
	return StatusAwaitingNeighborhood
}

// StatusAfterVerification resolves the state that follows a successful
// verification in the given state, honoring types that skip the district
// tier.
func (t LetterType) StatusAfterVerification(current Status) (Status, error) {
	switch current {
	case StatusAwaitingNeighborhood:
		for _, level := range t.Levels {
			if level == LevelDistrict {
				return StatusAwaitingDistrict, nil
			}
		}
		return StatusAwaitingFinalApproval, nil
	case StatusAwaitingDistrict:
		return StatusAwaitingFinalApproval, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidTransition, "no verification step in state "+string(current))
}

// LetterRequest is the aggregate the state machine owns.
//
// Invariants:
//   - Status changes only through the Can*/Apply* pairs below
//   - Attachments grow one entry per verification tier that acted; the
//     district entry never exists without the neighborhood one (tiers are
//     sequential)
//   - ReferenceNumber is assigned exactly once, on final approval
//   - Requests are never deleted; terminal states end the lifecycle
type LetterRequest struct {
	ID          id.RequestID    `json:"id"`
	RequesterID id.ResidentID   `json:"requester_id"`
	LocationTag string          `json:"location_tag"`
	LetterType  id.LetterTypeID `json:"letter_type_id"`
	Status      Status          `json:"status"`

	Attachments     map[VerificationLevel]AttachmentRef `json:"attachments"`
	ReferenceNumber string                              `json:"reference_number,omitempty"`
	DataFields      map[string]string                   `json:"data_fields"`

	// ResumeStatus is set while a revision is pending: the awaiting-state
	// the request re-enters on resubmission. Tiers that already verified
	// keep their cover letters, so the chain resumes at the tier that asked
	// for the revision instead of restarting.
	ResumeStatus Status `json:"resume_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone deep-copies the request so stores can hand out values without
// aliasing their internal state.
func (r *LetterRequest) Clone() *LetterRequest {
	if r == nil {
		return nil
	}
	copied := *r
	copied.Attachments = make(map[VerificationLevel]AttachmentRef, len(r.Attachments))
	for level, ref := range r.Attachments {
		copied.Attachments[level] = ref
	}
	copied.DataFields = make(map[string]string, len(r.DataFields))
	for name, value := range r.DataFields {
		copied.DataFields[name] = value
	}
	return &copied
}

// ActorRef couples an actor id with the role its token carried.
type ActorRef struct {
	ID   id.ActorID
	Role Role
}

// NewLetterRequest constructs a pending request. The submit operation
// advances it into the letter type's first awaiting-state.
func NewLetterRequest(requestID id.RequestID, requesterID id.ResidentID, locationTag string, letterType id.LetterTypeID, dataFields map[string]string, now time.Time) (*LetterRequest, error) {
	if requesterID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "requester id is required")
	}
	if letterType.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "letter type id is required")
	}
	fields := make(map[string]string, len(dataFields))
	for name, value := range dataFields {
		fields[name] = value
	}
	return &LetterRequest{
		ID:          requestID,
		RequesterID: requesterID,
		LocationTag: locationTag,
		LetterType:  letterType,
		Status:      StatusPending,
		Attachments: make(map[VerificationLevel]AttachmentRef),
		DataFields:  fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
