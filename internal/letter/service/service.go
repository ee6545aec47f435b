// Package service implements the letter request state machine: it owns every
// status transition, validates role/state pairings against the central
// transition table, and writes the audit trail in the same atomic unit as
// the state change. A transition is never observable without its event, and
// a failed event write leaves the request exactly as it was.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"suratdesa/internal/attachment"
	"suratdesa/internal/audit"
	"suratdesa/internal/letter/models"
	"suratdesa/internal/letter/store"
	"suratdesa/internal/notify"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/profile"
	"suratdesa/internal/template"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
	"suratdesa/pkg/platform/sentinel"
	"suratdesa/pkg/requestcontext"
)

// ReferenceNumberGenerator allocates the number a request receives on final
// approval. Implementations must hand out each number at most once; the
// service guarantees it asks at most once per request.
type ReferenceNumberGenerator interface {
	Next(ctx context.Context, letterType models.LetterType, effectiveDate time.Time) (string, error)
}

// dispatchTimeout bounds the downstream notification call. The transition
// has already committed by then; a slow channel must not hold the caller.
const dispatchTimeout = 3 * time.Second

// Service is the request state machine plus its read surface.
type Service struct {
	logger      *slog.Logger
	requests    store.Store
	types       store.TypeStore
	trail       audit.Trail
	mappings    template.MappingStore
	profiles    profile.Source
	attachments attachment.Store
	refnums     ReferenceNumberGenerator
	dispatcher  notify.Dispatcher
	metrics     *metrics.Metrics
	tx          TxScope
	tracer      trace.Tracer
}

type serviceConfig struct {
	logger      *slog.Logger
	mappings    template.MappingStore
	profiles    profile.Source
	attachments attachment.Store
	refnums     ReferenceNumberGenerator
	dispatcher  notify.Dispatcher
	metrics     *metrics.Metrics
	tx          TxScope
}

// Option customizes a Service.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithMappingStore(mappings template.MappingStore) Option {
	return func(cfg *serviceConfig) { cfg.mappings = mappings }
}

func WithProfileSource(profiles profile.Source) Option {
	return func(cfg *serviceConfig) { cfg.profiles = profiles }
}

func WithAttachmentStore(attachments attachment.Store) Option {
	return func(cfg *serviceConfig) { cfg.attachments = attachments }
}

func WithReferenceNumbers(refnums ReferenceNumberGenerator) Option {
	return func(cfg *serviceConfig) { cfg.refnums = refnums }
}

func WithDispatcher(dispatcher notify.Dispatcher) Option {
	return func(cfg *serviceConfig) { cfg.dispatcher = dispatcher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithTxScope(tx TxScope) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

// New wires the state machine. Requests, types, and the audit trail are
// mandatory; everything else degrades gracefully when absent so unit tests
// can wire only what they exercise.
func New(requests store.Store, types store.TypeStore, trail audit.Trail, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, errors.New("letter request store is required")
	}
	if types == nil {
		return nil, errors.New("letter type store is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = NewShardedTx()
	}
	return &Service{
		logger:      cfg.logger,
		requests:    requests,
		types:       types,
		trail:       trail,
		mappings:    cfg.mappings,
		profiles:    cfg.profiles,
		attachments: cfg.attachments,
		refnums:     cfg.refnums,
		dispatcher:  cfg.dispatcher,
		metrics:     cfg.metrics,
		tx:          cfg.tx,
		tracer:      otel.Tracer("suratdesa/letter"),
	}, nil
}

// SubmitInput carries everything a resident provides when requesting a
// letter.
type SubmitInput struct {
	RequesterID id.ResidentID
	LocationTag string
	LetterType  id.LetterTypeID
	DataFields  map[string]string
}

// Submit validates the input against the letter type's field mapping,
// creates the request in the first awaiting-state of the type's verification
// chain, and appends the created event.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.submit")
	defer span.End()

	now := requestcontext.Now(ctx)
	request, err := models.NewLetterRequest(id.NewRequestID(), in.RequesterID, in.LocationTag, in.LetterType, in.DataFields, now)
	if err != nil {
		return nil, err
	}

	letterType, err := s.types.FindByID(ctx, in.LetterType)
	if err != nil {
		return nil, wrapStoreErr(err, "letter type")
	}

	if err := s.requireManualFields(ctx, in.LetterType, request.DataFields); err != nil {
		return nil, err
	}

	request.Status = letterType.FirstAwaitingStatus()

	event, err := audit.NewEvent(request.ID, id.ActorID(in.RequesterID), string(models.RoleResident), audit.ActionCreated, "", now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, request.ID.String(), func(ctx context.Context) error {
		err := s.requests.Create(ctx, request, func(ctx context.Context) error {
			return s.trail.Append(ctx, event)
		})
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	if s.metrics != nil {
		s.metrics.RequestsSubmitted.Inc()
	}
	return request, nil
}

// requireManualFields enforces that every manual-input field of a fillable
// template arrived with a value. Types without a mapping accept any fields.
func (s *Service) requireManualFields(ctx context.Context, letterType id.LetterTypeID, dataFields map[string]string) error {
	if s.mappings == nil {
		return nil
	}
	mapping, err := s.mappings.FindByLetterType(ctx, letterType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load field mapping")
	}
	if !mapping.IsFillable {
		return nil
	}
	for _, name := range mapping.ManualInput {
		if dataFields[name] == "" {
			return dErrors.New(dErrors.CodeValidation, "missing required field "+name)
		}
	}
	return nil
}

// Verify records a tier's cover letter and advances the request along its
// verification chain. The acting role must be exactly the one the current
// state waits for, and the attachment is mandatory at every tier.
func (s *Service) Verify(ctx context.Context, requestID id.RequestID, actor models.ActorRef, att models.AttachmentRef, note string) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.verify")
	defer span.End()

	if att.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "a cover letter attachment is required to verify")
	}
	if s.attachments != nil {
		if _, err := s.attachments.Resolve(ctx, att); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "attachment does not resolve to a stored upload")
		}
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.LetterRequest
		event   audit.Event
		level   models.VerificationLevel
	)
	err := s.tx.RunInTx(ctx, requestID.String(), func(ctx context.Context) error {
		current, err := s.requests.FindByID(ctx, requestID)
		if err != nil {
			return wrapStoreErr(err, "letter request")
		}
		letterType, err := s.types.FindByID(ctx, current.LetterType)
		if err != nil {
			return wrapStoreErr(err, "letter type")
		}

		event, err = audit.NewEvent(requestID, actor.ID, string(actor.Role), audit.ActionVerified, note, now)
		if err != nil {
			return err
		}

		var next models.Status
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.LetterRequest) error {
				if err := r.CanVerify(actor.Role); err != nil {
					return err
				}
				lvl, ok := models.VerificationLevelFor(r.Status)
				if !ok {
					return dErrors.New(dErrors.CodeInvalidTransition, "no verification tier acts in state "+string(r.Status))
				}
				level = lvl
				next, err = letterType.StatusAfterVerification(r.Status)
				return err
			},
			func(r *models.LetterRequest) {
				r.ApplyVerification(level, att, next, now)
			},
			func(ctx context.Context) error { return s.trail.Append(ctx, event) },
		)
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	if s.metrics != nil {
		s.metrics.RequestsVerified.WithLabelValues(string(level)).Inc()
	}
	return updated, nil
}

// Reject terminates the request. Valid from the awaiting-state whose role
// matches the actor; the note is mandatory because the requester sees it.
func (s *Service) Reject(ctx context.Context, requestID id.RequestID, actor models.ActorRef, note string) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.reject")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		updated *models.LetterRequest
		event   audit.Event
	)
	err := s.tx.RunInTx(ctx, requestID.String(), func(ctx context.Context) error {
		var err error
		event, err = audit.NewEvent(requestID, actor.ID, string(actor.Role), audit.ActionRejected, note, now)
		if err != nil {
			return err
		}
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.LetterRequest) error { return r.CanReject(actor.Role) },
			func(r *models.LetterRequest) { r.ApplyRejection(now) },
			func(ctx context.Context) error { return s.trail.Append(ctx, event) },
		)
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	if s.metrics != nil {
		s.metrics.RequestsRejected.Inc()
	}
	return updated, nil
}

// RequestRevision parks the request for correction and records which tier
// asked, so resubmission re-enters the chain at that tier instead of
// restarting from the first one.
func (s *Service) RequestRevision(ctx context.Context, requestID id.RequestID, actor models.ActorRef, note string) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.request_revision")
	defer span.End()

	resume, ok := models.ResumeStatusFor(actor.Role)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "role "+string(actor.Role)+" cannot request a revision")
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.LetterRequest
		event   audit.Event
	)
	err := s.tx.RunInTx(ctx, requestID.String(), func(ctx context.Context) error {
		var err error
		event, err = audit.NewEvent(requestID, actor.ID, string(actor.Role), audit.ActionRevisionRequested, note, now)
		if err != nil {
			return err
		}
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.LetterRequest) error { return r.CanRequestRevision(actor.Role) },
			func(r *models.LetterRequest) { r.ApplyRevisionRequest(resume, now) },
			func(ctx context.Context) error { return s.trail.Append(ctx, event) },
		)
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	if s.metrics != nil {
		s.metrics.RevisionsRequested.Inc()
	}
	return updated, nil
}

// Resubmit merges the requester's corrected fields and re-enters the chain
// at the tier that requested the revision.
func (s *Service) Resubmit(ctx context.Context, requestID id.RequestID, actor models.ActorRef, updatedFields map[string]string) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.resubmit")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		updated *models.LetterRequest
		event   audit.Event
	)
	err := s.tx.RunInTx(ctx, requestID.String(), func(ctx context.Context) error {
		current, err := s.requests.FindByID(ctx, requestID)
		if err != nil {
			return wrapStoreErr(err, "letter request")
		}
		letterType, err := s.types.FindByID(ctx, current.LetterType)
		if err != nil {
			return wrapStoreErr(err, "letter type")
		}

		event, err = audit.NewEvent(requestID, actor.ID, string(actor.Role), audit.ActionCreated, "revised", now)
		if err != nil {
			return err
		}

		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.LetterRequest) error { return r.CanResubmit(actor) },
			func(r *models.LetterRequest) {
				r.ApplyResubmission(updatedFields, letterType.FirstAwaitingStatus(), now)
			},
			func(ctx context.Context) error { return s.trail.Append(ctx, event) },
		)
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	return updated, nil
}

// Approve completes the request: it validates the admin/state pairing,
// allocates the reference number, and records the approval. The number is
// generated only after validation passes inside the per-request scope, so a
// retried approval can never allocate twice: the second attempt fails the
// terminal-state check before reaching the generator.
func (s *Service) Approve(ctx context.Context, requestID id.RequestID, actor models.ActorRef, effectiveDate time.Time) (*models.LetterRequest, error) {
	ctx, span := s.tracer.Start(ctx, "letter.approve")
	defer span.End()

	if s.refnums == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "reference number generator is not configured")
	}

	now := requestcontext.Now(ctx)
	if effectiveDate.IsZero() {
		effectiveDate = now
	}

	var (
		updated *models.LetterRequest
		event   audit.Event
	)
	err := s.tx.RunInTx(ctx, requestID.String(), func(ctx context.Context) error {
		current, err := s.requests.FindByID(ctx, requestID)
		if err != nil {
			return wrapStoreErr(err, "letter request")
		}
		if err := current.CanApprove(actor.Role); err != nil {
			return err
		}
		letterType, err := s.types.FindByID(ctx, current.LetterType)
		if err != nil {
			return wrapStoreErr(err, "letter type")
		}

		referenceNumber, err := s.refnums.Next(ctx, letterType, effectiveDate)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "generate reference number")
		}

		event, err = audit.NewEvent(requestID, actor.ID, string(actor.Role), audit.ActionApproved, referenceNumber, now)
		if err != nil {
			return err
		}

		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.LetterRequest) error { return r.CanApprove(actor.Role) },
			func(r *models.LetterRequest) { r.ApplyApproval(referenceNumber, now) },
			func(ctx context.Context) error { return s.trail.Append(ctx, event) },
		)
		return wrapStoreErr(err, "letter request")
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event)
	if s.metrics != nil {
		s.metrics.RequestsCompleted.Inc()
	}
	return updated, nil
}

// GetRequest returns the current state of a request.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.LetterRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapStoreErr(err, "letter request")
	}
	return request, nil
}

// ListByRequester returns a resident's requests, newest first not
// guaranteed; callers sort for display.
func (s *Service) ListByRequester(ctx context.Context, requesterID id.ResidentID) ([]*models.LetterRequest, error) {
	return s.requests.ListByRequester(ctx, requesterID)
}

// History returns the full ordered audit trail of a request.
func (s *Service) History(ctx context.Context, requestID id.RequestID) ([]audit.Event, error) {
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return nil, wrapStoreErr(err, "letter request")
	}
	return s.trail.ListByRequest(ctx, requestID)
}

// FillResult is a resolved letter instance plus soft warnings.
type FillResult struct {
	Values map[string]string `json:"values"`
	// Warning is set when auto-fill fields had no profile match; the
	// instance is still renderable with those fields blank.
	Warning string `json:"warning,omitempty"`
}

// Fill resolves the request's letter instance from its type's field mapping,
// the requester's profile, and the submitted data fields.
func (s *Service) Fill(ctx context.Context, requestID id.RequestID) (FillResult, error) {
	ctx, span := s.tracer.Start(ctx, "letter.fill")
	defer span.End()

	if s.mappings == nil || s.profiles == nil {
		return FillResult{}, dErrors.New(dErrors.CodeInternal, "fill requires mapping and profile sources")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return FillResult{}, wrapStoreErr(err, "letter request")
	}
	mapping, err := s.mappings.FindByLetterType(ctx, request.LetterType)
	if err != nil {
		return FillResult{}, wrapStoreErr(err, "field mapping")
	}

	attrs, err := s.profiles.FindByResident(ctx, request.RequesterID)
	if errors.Is(err, sentinel.ErrNotFound) {
		attrs = profile.Attributes{}
	} else if err != nil {
		return FillResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "load requester profile")
	}

	values, err := template.Fill(mapping, attrs, request.DataFields)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeMissingProfileData) {
		return FillResult{}, err
	}
	result := FillResult{Values: values}
	if err != nil {
		result.Warning = err.Error()
	}
	return result, nil
}

// afterCommit fans the committed event out to the dispatcher. Failures are
// logged and swallowed: the transition is already durable and must be
// reported as successful regardless of downstream outcome.
func (s *Service) afterCommit(ctx context.Context, event audit.Event) {
	if s.dispatcher == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	if err := s.dispatcher.OnEvent(dctx, event); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"request_id", event.RequestID.String(),
			"action", string(event.Action),
			"error", err,
		)
	}
}

// wrapStoreErr translates store sentinels into domain errors.
func wrapStoreErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist "+what)
	}
}
