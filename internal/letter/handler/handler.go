// Package handler exposes the letter workflow over HTTP. Handlers stay thin:
// they decode, delegate to the service, and render; every workflow rule lives
// behind the Service interface.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"suratdesa/internal/attachment"
	"suratdesa/internal/audit"
	"suratdesa/internal/letter/models"
	"suratdesa/internal/letter/service"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/platform/middleware"
	"suratdesa/internal/transport/http/shared"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
	"suratdesa/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the letter workflow operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, in service.SubmitInput) (*models.LetterRequest, error)
	Verify(ctx context.Context, requestID id.RequestID, actor models.ActorRef, att models.AttachmentRef, note string) (*models.LetterRequest, error)
	Reject(ctx context.Context, requestID id.RequestID, actor models.ActorRef, note string) (*models.LetterRequest, error)
	RequestRevision(ctx context.Context, requestID id.RequestID, actor models.ActorRef, note string) (*models.LetterRequest, error)
	Resubmit(ctx context.Context, requestID id.RequestID, actor models.ActorRef, updatedFields map[string]string) (*models.LetterRequest, error)
	Approve(ctx context.Context, requestID id.RequestID, actor models.ActorRef, effectiveDate time.Time) (*models.LetterRequest, error)
	GetRequest(ctx context.Context, requestID id.RequestID) (*models.LetterRequest, error)
	ListByRequester(ctx context.Context, requesterID id.ResidentID) ([]*models.LetterRequest, error)
	History(ctx context.Context, requestID id.RequestID) ([]audit.Event, error)
	Fill(ctx context.Context, requestID id.RequestID) (service.FillResult, error)
}

const maxUploadBytes = 10 << 20

// Handler handles letter request endpoints.
type Handler struct {
	logger       *slog.Logger
	letters      Service
	attachments  attachment.Store
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a letter Handler.
func New(
	letters Service,
	attachments attachment.Store,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		letters:      letters,
		attachments:  attachments,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the letter routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	letterRouter := chi.NewRouter()
	letterRouter.Use(middleware.Recovery(h.logger))
	letterRouter.Use(middleware.RequestID)
	letterRouter.Use(middleware.Logger(h.logger))
	letterRouter.Use(middleware.Timeout(30 * time.Second))
	letterRouter.Use(middleware.ContentTypeJSON)
	letterRouter.Use(middleware.Latency(h.metrics))
	letterRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	letterRouter.Post("/letters", h.handleSubmit)
	letterRouter.Get("/letters", h.handleListMine)
	letterRouter.Get("/letters/{requestID}", h.handleGet)
	letterRouter.Get("/letters/{requestID}/history", h.handleHistory)
	letterRouter.Post("/letters/{requestID}/verify", h.handleVerify)
	letterRouter.Post("/letters/{requestID}/reject", h.handleReject)
	letterRouter.Post("/letters/{requestID}/revision", h.handleRequestRevision)
	letterRouter.Post("/letters/{requestID}/resubmit", h.handleResubmit)
	letterRouter.Post("/letters/{requestID}/approve", h.handleApprove)
	letterRouter.Post("/letters/{requestID}/fill", h.handleFill)
	letterRouter.Post("/attachments", h.handleUploadAttachment)

	r.Mount("/", letterRouter)
}

func actorFromContext(ctx context.Context) (models.ActorRef, error) {
	actorID := requestcontext.ActorID(ctx)
	role := requestcontext.ActorRole(ctx)
	if actorID == "" || role == "" {
		return models.ActorRef{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return models.ActorRef{ID: actorID, Role: models.Role(role)}, nil
}

func requestIDFromURL(r *http.Request) (id.RequestID, error) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		return id.RequestID{}, dErrors.New(dErrors.CodeValidation, "malformed request id")
	}
	return requestID, nil
}

type submitRequest struct {
	LetterTypeID string            `json:"letter_type_id"`
	LocationTag  string            `json:"location_tag"`
	DataFields   map[string]string `json:"data_fields"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if actor.Role != models.RoleResident {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only residents submit letter requests"))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "submit", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	request, err := h.letters.Submit(ctx, service.SubmitInput{
		RequesterID: id.ResidentID(actor.ID),
		LocationTag: req.LocationTag,
		LetterType:  id.LetterTypeID(req.LetterTypeID),
		DataFields:  req.DataFields,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "submit", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requests, err := h.letters.ListByRequester(ctx, id.ResidentID(actor.ID))
	if err != nil {
		h.writeServiceError(ctx, w, "list", err)
		return
	}
	if requests == nil {
		requests = []*models.LetterRequest{}
	}
	shared.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request, err := h.loadVisible(ctx, r)
	if err != nil {
		h.writeServiceError(ctx, w, "get", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request, err := h.loadVisible(ctx, r)
	if err != nil {
		h.writeServiceError(ctx, w, "history", err)
		return
	}
	events, err := h.letters.History(ctx, request.ID)
	if err != nil {
		h.writeServiceError(ctx, w, "history", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, events)
}

// loadVisible fetches the request and enforces read visibility: residents see
// only their own requests, authority roles see everything.
func (h *Handler) loadVisible(ctx context.Context, r *http.Request) (*models.LetterRequest, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	requestID, err := requestIDFromURL(r)
	if err != nil {
		return nil, err
	}
	request, err := h.letters.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleResident && request.RequesterID != id.ResidentID(actor.ID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "request belongs to another resident")
	}
	return request, nil
}

type verifyRequest struct {
	AttachmentHandle string `json:"attachment_handle"`
	Note             string `json:"note"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "verify", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	att := models.AttachmentRef{Handle: req.AttachmentHandle, UploadedAt: requestcontext.Now(ctx)}
	request, err := h.letters.Verify(ctx, requestID, actor, att, req.Note)
	if err != nil {
		h.writeServiceError(ctx, w, "verify", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleNoteAction(w, r, "reject", h.letters.Reject)
}

func (h *Handler) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	h.handleNoteAction(w, r, "revision", h.letters.RequestRevision)
}

func (h *Handler) handleNoteAction(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	action func(context.Context, id.RequestID, models.ActorRef, string) (*models.LetterRequest, error)) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, op, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	request, err := action(ctx, requestID, actor, req.Note)
	if err != nil {
		h.writeServiceError(ctx, w, op, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

type resubmitRequest struct {
	DataFields map[string]string `json:"data_fields"`
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req resubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "resubmit", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	request, err := h.letters.Resubmit(ctx, requestID, actor, req.DataFields)
	if err != nil {
		h.writeServiceError(ctx, w, "resubmit", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

type approveRequest struct {
	// EffectiveDate overrides the date encoded into the reference number,
	// format 2006-01-02. Defaults to the request time.
	EffectiveDate string `json:"effective_date,omitempty"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requestID, err := requestIDFromURL(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.warnDecode(ctx, "approve", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	var effectiveDate time.Time
	if req.EffectiveDate != "" {
		effectiveDate, err = time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "effective_date must be formatted as 2006-01-02"))
			return
		}
	}
	request, err := h.letters.Approve(ctx, requestID, actor, effectiveDate)
	if err != nil {
		h.writeServiceError(ctx, w, "approve", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleFill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request, err := h.loadVisible(ctx, r)
	if err != nil {
		h.writeServiceError(ctx, w, "fill", err)
		return
	}
	result, err := h.letters.Fill(ctx, request.ID)
	if err != nil {
		h.writeServiceError(ctx, w, "fill", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.attachments == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "attachment storage is not configured"))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "attachment exceeds the upload size limit"))
		return
	}
	if len(data) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "attachment body is empty"))
		return
	}
	ref, err := h.attachments.Store(ctx, data, r.Header.Get("Content-Type"))
	if err != nil {
		h.writeServiceError(ctx, w, "upload", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, ref)
}

func (h *Handler) warnDecode(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "invalid "+op+" request",
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

// writeServiceError logs at a severity matching the error class and renders
// the envelope. Client mistakes are warnings; anything unexpected is an error
// with an opaque body.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "letter "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "letter "+op+" failed"))
	default:
		h.logger.WarnContext(ctx, "letter "+op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
	}
}
