package models

import (
	"time"

	"suratdesa/internal/audit"
	dErrors "suratdesa/pkg/domain-errors"
)

// transitionKey is one cell of the from-state × role × action table. The
// resulting state is not part of the key because verification targets depend
// on the letter type's chain; the table answers only "is this legal".
type transitionKey struct {
	From   Status
	Role   Role
	Action audit.Action
}

// transitionTable is the single source of truth for workflow legality.
// Role/state pairing is exact: a neighborhood verifier cannot act while the
// request awaits the district tier, and vice versa.
var transitionTable = map[transitionKey]struct{}{
	{StatusAwaitingNeighborhood, RoleNeighborhood, audit.ActionVerified}: {},
	{StatusAwaitingDistrict, RoleDistrict, audit.ActionVerified}:         {},

	{StatusAwaitingNeighborhood, RoleNeighborhood, audit.ActionRejected}: {},
	{StatusAwaitingDistrict, RoleDistrict, audit.ActionRejected}:         {},
	{StatusAwaitingFinalApproval, RoleAdmin, audit.ActionRejected}:       {},

	{StatusAwaitingNeighborhood, RoleNeighborhood, audit.ActionRevisionRequested}: {},
	{StatusAwaitingDistrict, RoleDistrict, audit.ActionRevisionRequested}:         {},
	{StatusAwaitingFinalApproval, RoleAdmin, audit.ActionRevisionRequested}:       {},

	{StatusAwaitingFinalApproval, RoleAdmin, audit.ActionApproved}: {},

	// Resubmission re-enters the chain; audited as a "created" event with a
	// revision note.
	{StatusRevisionRequested, RoleResident, audit.ActionCreated}: {},
}

// Allowed reports whether the table permits the action for the role in the
// given state.
func Allowed(from Status, role Role, action audit.Action) bool {
	_, ok := transitionTable[transitionKey{From: from, Role: role, Action: action}]
	return ok
}

// RequiredRole is the single role expected to act in an awaiting-state.
func RequiredRole(s Status) (Role, bool) {
	switch s {
	case StatusAwaitingNeighborhood:
		return RoleNeighborhood, true
	case StatusAwaitingDistrict:
		return RoleDistrict, true
	case StatusAwaitingFinalApproval:
		return RoleAdmin, true
	}
	return "", false
}

// VerificationLevelFor maps an awaiting-state to the attachment tier acting
// in it. Final approval carries no cover letter.
func VerificationLevelFor(s Status) (VerificationLevel, bool) {
	switch s {
	case StatusAwaitingNeighborhood:
		return LevelNeighborhood, true
	case StatusAwaitingDistrict:
		return LevelDistrict, true
	}
	return "", false
}

// ResumeStatusFor maps the tier requesting a revision to the awaiting-state
// the request re-enters on resubmission. Earlier tiers already verified and
// keep their cover letters, so the chain resumes at the requesting tier.
func ResumeStatusFor(role Role) (Status, bool) {
	switch role {
	case RoleNeighborhood:
		return StatusAwaitingNeighborhood, true
	case RoleDistrict:
		return StatusAwaitingDistrict, true
	case RoleAdmin:
		return StatusAwaitingFinalApproval, true
	}
	return "", false
}

func (r *LetterRequest) invalidTransition(action audit.Action, role Role) error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "request is already "+string(r.Status))
	}
	return dErrors.New(dErrors.CodeInvalidTransition,
		string(action)+" by role "+string(role)+" is not allowed while "+string(r.Status))
}

// CanVerify checks the role/state pairing for a verification. The attachment
// requirement is validated separately because it is a ValidationError, not a
// transition error.
func (r *LetterRequest) CanVerify(role Role) error {
	if !Allowed(r.Status, role, audit.ActionVerified) {
		return r.invalidTransition(audit.ActionVerified, role)
	}
	if r.Status == StatusAwaitingDistrict {
		if _, ok := r.Attachments[LevelNeighborhood]; !ok {
			return dErrors.New(dErrors.CodeInvalidTransition, "district verification requires a prior neighborhood cover letter")
		}
	}
	return nil
}

// ApplyVerification stores the tier's cover letter and advances the status.
// Call CanVerify first.
func (r *LetterRequest) ApplyVerification(level VerificationLevel, attachment AttachmentRef, next Status, now time.Time) {
	if r.Attachments == nil {
		r.Attachments = make(map[VerificationLevel]AttachmentRef)
	}
	r.Attachments[level] = attachment
	r.Status = next
	r.UpdatedAt = now
}

// CanReject checks the role/state pairing for a rejection.
func (r *LetterRequest) CanReject(role Role) error {
	if !Allowed(r.Status, role, audit.ActionRejected) {
		return r.invalidTransition(audit.ActionRejected, role)
	}
	return nil
}

// ApplyRejection moves the request into its terminal rejected state.
func (r *LetterRequest) ApplyRejection(now time.Time) {
	r.Status = StatusRejected
	r.UpdatedAt = now
}

// CanRequestRevision checks the role/state pairing for a revision request.
func (r *LetterRequest) CanRequestRevision(role Role) error {
	if !Allowed(r.Status, role, audit.ActionRevisionRequested) {
		return r.invalidTransition(audit.ActionRevisionRequested, role)
	}
	return nil
}

// ApplyRevisionRequest parks the request and records where resubmission
// re-enters the chain.
func (r *LetterRequest) ApplyRevisionRequest(resume Status, now time.Time) {
	r.Status = StatusRevisionRequested
	r.ResumeStatus = resume
	r.UpdatedAt = now
}

// CanResubmit checks that the request is parked for revision and the caller
// is its requester. The identity check applies to every caller: a verifier
// or admin token never resubmits on a resident's behalf.
func (r *LetterRequest) CanResubmit(requester ActorRef) error {
	if !Allowed(r.Status, RoleResident, audit.ActionCreated) {
		return r.invalidTransition(audit.ActionCreated, RoleResident)
	}
	if string(requester.ID) != string(r.RequesterID) {
		return dErrors.New(dErrors.CodeForbidden, "only the requester may resubmit")
	}
	return nil
}

// ApplyResubmission merges corrected fields and re-enters the chain at the
// recorded resume state.
func (r *LetterRequest) ApplyResubmission(updatedFields map[string]string, fallback Status, now time.Time) {
	if r.DataFields == nil {
		r.DataFields = make(map[string]string)
	}
	for name, value := range updatedFields {
		r.DataFields[name] = value
	}
	next := r.ResumeStatus
	if next == "" {
		next = fallback
	}
	r.Status = next
	r.ResumeStatus = ""
	r.UpdatedAt = now
}

// CanApprove checks the role/state pairing for final approval. A completed
// request fails here, which is what keeps retried approvals from generating
// duplicate reference numbers.
func (r *LetterRequest) CanApprove(role Role) error {
	if !Allowed(r.Status, role, audit.ActionApproved) {
		return r.invalidTransition(audit.ActionApproved, role)
	}
	return nil
}

// ApplyApproval completes the request with its immutable reference number.
func (r *LetterRequest) ApplyApproval(referenceNumber string, now time.Time) {
	r.ReferenceNumber = referenceNumber
	r.Status = StatusCompleted
	r.UpdatedAt = now
}

