// Package handler exposes field mapping administration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"suratdesa/internal/letter/models"
	"suratdesa/internal/platform/metrics"
	"suratdesa/internal/platform/middleware"
	"suratdesa/internal/template"
	"suratdesa/internal/transport/http/shared"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
	"suratdesa/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the mapping administration operations.
type Service interface {
	Detect(ctx context.Context, letterType id.LetterTypeID) (*template.FieldMapping, error)
	GetMapping(ctx context.Context, letterType id.LetterTypeID) (*template.FieldMapping, error)
	SetFieldBucket(ctx context.Context, letterType id.LetterTypeID, fieldName string, bucket template.FieldBucket) (*template.FieldMapping, error)
}

// Handler handles field mapping endpoints. Mutations are admin-only; any
// authenticated actor may read a mapping.
type Handler struct {
	logger       *slog.Logger
	admin        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a template mapping Handler.
func New(
	admin Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		admin:        admin,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the mapping routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	mappingRouter := chi.NewRouter()
	mappingRouter.Use(middleware.Recovery(h.logger))
	mappingRouter.Use(middleware.RequestID)
	mappingRouter.Use(middleware.Logger(h.logger))
	mappingRouter.Use(middleware.Timeout(30 * time.Second))
	mappingRouter.Use(middleware.ContentTypeJSON)
	mappingRouter.Use(middleware.Latency(h.metrics))
	mappingRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	mappingRouter.Post("/templates/{letterTypeID}/mapping/detect", h.handleDetect)
	mappingRouter.Get("/templates/{letterTypeID}/mapping", h.handleGetMapping)
	mappingRouter.Put("/templates/{letterTypeID}/mapping/fields/{fieldName}", h.handleSetBucket)

	r.Mount("/", mappingRouter)
}

func (h *Handler) requireAdmin(ctx context.Context) error {
	if requestcontext.ActorRole(ctx) != string(models.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "field mappings are managed by administrators")
	}
	return nil
}

func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireAdmin(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}
	mapping, err := h.admin.Detect(ctx, id.LetterTypeID(chi.URLParam(r, "letterTypeID")))
	if err != nil {
		h.writeError(ctx, w, "detect", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mapping)
}

func (h *Handler) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mapping, err := h.admin.GetMapping(ctx, id.LetterTypeID(chi.URLParam(r, "letterTypeID")))
	if err != nil {
		h.writeError(ctx, w, "get mapping", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mapping)
}

type setBucketRequest struct {
	Bucket string `json:"bucket"`
}

func (h *Handler) handleSetBucket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireAdmin(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}
	var req setBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	mapping, err := h.admin.SetFieldBucket(ctx,
		id.LetterTypeID(chi.URLParam(r, "letterTypeID")),
		chi.URLParam(r, "fieldName"),
		template.FieldBucket(req.Bucket),
	)
	if err != nil {
		h.writeError(ctx, w, "set bucket", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mapping)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "mapping "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "mapping "+op+" failed"))
		return
	}
	h.logger.WarnContext(ctx, "mapping "+op+" rejected",
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
