// Package handler exposes the petition moderation API over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arida/internal/identity"
	"arida/internal/petition/models"
	"arida/internal/petition/service"
	"arida/internal/platform/middleware"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/httputil"
)

// Service is the petition operations surface the handler needs.
type Service interface {
	Create(ctx context.Context, actor identity.Actor, req service.CreateRequest) (*models.Petition, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error)
	List(ctx context.Context, actor identity.Actor, filter models.ListFilter) ([]*models.Petition, error)
	Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*models.Petition, error)
	Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*models.Petition, error)
	Pause(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*models.Petition, error)
	Unpause(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error)
	Resubmit(ctx context.Context, actor identity.Actor, id uuid.UUID, req service.ResubmitRequest) (*models.Petition, error)
	Archive(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the petition routes. Auth middleware runs upstream on
// the shared router; moderator-only routes add a role check here.
func (h *Handler) Register(r chi.Router) {
	r.Route("/petitions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)

		r.Route("/{petitionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/resubmit", h.handleResubmit)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(identity.Role.CanModerate, h.logger))
				r.Post("/approve", h.handleApprove)
				r.Post("/reject", h.handleReject)
				r.Post("/pause", h.handlePause)
				r.Post("/unpause", h.handleUnpause)
				r.Post("/archive", h.handleArchive)
			})
		})
	})
}

// petitionResponse is the wire shape of a petition.
type petitionResponse struct {
	ID               string   `json:"id"`
	CreatorID        string   `json:"creator_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category,omitempty"`
	TargetSignatures int      `json:"target_signatures"`
	SignatureCount   int      `json:"signature_count"`
	MediaRefs        []string `json:"media_refs,omitempty"`

	Status          string `json:"status"`
	ModerationNotes string `json:"moderation_notes,omitempty"`
	ModeratorID     string `json:"moderator_id,omitempty"`

	FlaggedProfanity bool `json:"flagged_profanity"`
	FlaggedSpam      bool `json:"flagged_spam"`

	ResubmissionCount   int                         `json:"resubmission_count"`
	ResubmissionHistory []resubmissionEntryResponse `json:"resubmission_history,omitempty"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	PausedAt   *time.Time `json:"paused_at,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type resubmissionEntryResponse struct {
	RejectedAt      time.Time  `json:"rejected_at"`
	RejectionReason string     `json:"rejection_reason"`
	ResubmittedAt   *time.Time `json:"resubmitted_at,omitempty"`
}

func toResponse(p *models.Petition) petitionResponse {
	resp := petitionResponse{
		ID:                p.ID.String(),
		CreatorID:         p.CreatorID,
		Title:             p.Title,
		Description:       p.Description,
		Category:          p.Category,
		TargetSignatures:  p.TargetSignatures,
		SignatureCount:    p.SignatureCount,
		MediaRefs:         p.MediaRefs,
		Status:            string(p.Status),
		ModerationNotes:   p.ModerationNotes,
		ModeratorID:       p.ModeratorID,
		FlaggedProfanity:  p.FlaggedProfanity,
		FlaggedSpam:       p.FlaggedSpam,
		ResubmissionCount: p.ResubmissionCount,
		ApprovedAt:        p.ApprovedAt,
		PausedAt:          p.PausedAt,
		ArchivedAt:        p.ArchivedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	for _, e := range p.ResubmissionHistory {
		resp.ResubmissionHistory = append(resp.ResubmissionHistory, resubmissionEntryResponse(e))
	}
	return resp
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[service.CreateRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, actor, *req)
	if err != nil {
		h.logError(ctx, "create petition", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	id, ok := h.petitionID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	filter := models.ListFilter{
		Status:    models.Status(r.URL.Query().Get("status")),
		CreatorID: r.URL.Query().Get("creator"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown status"))
		return
	}

	petitions, err := h.service.List(ctx, actor, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]petitionResponse, 0, len(petitions))
	for _, p := range petitions {
		out = append(out, toResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"petitions": out})
}

// decisionRequest carries the moderator's note or reason.
type decisionRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Petition, error) {
		return h.service.Approve(ctx, actor, id, req.Note)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Petition, error) {
		return h.service.Reject(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause", func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Petition, error) {
		return h.service.Pause(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	id, ok := h.petitionID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Unpause(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.petitionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[service.ResubmitRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	p, err := h.service.Resubmit(ctx, actor, id, *req)
	if err != nil {
		h.logError(ctx, "resubmit petition", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	id, ok := h.petitionID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Archive(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// transition handles the common decode/call/respond shape of moderator
// decision endpoints.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string,
	call func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Petition, error)) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.petitionID(w, r)
	if !ok {
		return
	}

	// Decision bodies are optional for approve; tolerate an empty body.
	req := decisionRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		decoded, ok := httputil.DecodeJSON[decisionRequest](w, r, h.logger, requestID)
		if !ok {
			return
		}
		req = *decoded
	}

	p, err := call(ctx, actor, id, req)
	if err != nil {
		h.logError(ctx, name+" petition", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) petitionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "petitionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid petition id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) logError(ctx context.Context, op, requestID string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestID,
			"error", err,
		)
		return
	}
	h.logger.WarnContext(ctx, op+" refused",
		"request_id", requestID,
		"error", err,
	)
}
