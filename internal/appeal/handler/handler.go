// Package handler exposes the appeal thread API over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arida/internal/appeal/models"
	"arida/internal/appeal/service"
	"arida/internal/identity"
	"arida/internal/platform/middleware"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/httputil"
)

// Service is the appeal operations surface the handler needs.
type Service interface {
	Open(ctx context.Context, actor identity.Actor, petitionID uuid.UUID, message string) (*models.Appeal, string, error)
	Get(ctx context.Context, actor identity.Actor, appealID uuid.UUID) (*service.Thread, error)
	GetByToken(ctx context.Context, appealID uuid.UUID, token string) (*service.Thread, error)
	AddMessage(ctx context.Context, actor identity.Actor, appealID uuid.UUID, content string, internal bool) (*models.Message, error)
	Resolve(ctx context.Context, actor identity.Actor, appealID uuid.UUID, note string) (*models.Appeal, error)
	Reject(ctx context.Context, actor identity.Actor, appealID uuid.UUID, reason string) (*models.Appeal, error)
	Reopen(ctx context.Context, actor identity.Actor, appealID uuid.UUID) (*models.Appeal, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated appeal routes. Auth middleware runs
// upstream on the shared router; moderator-only decisions add a role
// check here.
func (h *Handler) Register(r chi.Router) {
	r.Route("/appeals", func(r chi.Router) {
		r.Post("/", h.handleOpen)

		r.Route("/{appealID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/messages", h.handleAddMessage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(identity.Role.CanModerate, h.logger))
				r.Post("/resolve", h.handleResolve)
				r.Post("/reject", h.handleReject)
				r.Post("/reopen", h.handleReopen)
			})
		})
	})
}

// RegisterPublic mounts the token-based thread view used by creators
// following the emailed appeal link without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/appeals/{appealID}/thread", h.handleGetByToken)
}

type appealResponse struct {
	ID             string    `json:"id"`
	PetitionID     string    `json:"petition_id"`
	CreatorID      string    `json:"creator_id"`
	CreatorName    string    `json:"creator_name"`
	Status         string    `json:"status"`
	ResolutionNote string    `json:"resolution_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	SenderRole string    `json:"sender_role"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

type threadResponse struct {
	Appeal   appealResponse    `json:"appeal"`
	Messages []messageResponse `json:"messages"`
}

// openResponse carries the plaintext access token exactly once.
type openResponse struct {
	Appeal      appealResponse `json:"appeal"`
	AccessToken string         `json:"access_token"`
}

func toAppealResponse(a *models.Appeal) appealResponse {
	return appealResponse{
		ID:             a.ID.String(),
		PetitionID:     a.PetitionID.String(),
		CreatorID:      a.CreatorID,
		CreatorName:    a.CreatorName,
		Status:         string(a.Status),
		ResolutionNote: a.ResolutionNote,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toThreadResponse(t *service.Thread) threadResponse {
	resp := threadResponse{
		Appeal:   toAppealResponse(t.Appeal),
		Messages: make([]messageResponse, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:         m.ID.String(),
			SenderRole: string(m.SenderRole),
			SenderName: m.SenderName,
			Content:    m.Content,
			IsInternal: m.IsInternal,
			CreatedAt:  m.CreatedAt,
		})
	}
	return resp
}

type openRequest struct {
	PetitionID string `json:"petition_id" validate:"required"`
	Message    string `json:"message" validate:"required,notblank"`
}

type messageRequest struct {
	Content  string `json:"content" validate:"required,notblank"`
	Internal bool   `json:"internal"`
}

// decisionRequest carries the moderator's resolution note or rejection
// reason.
type decisionRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeValidJSON[openRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	petitionID, err := uuid.Parse(req.PetitionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid petition id"))
		return
	}

	a, token, err := h.service.Open(ctx, actor, petitionID, req.Message)
	if err != nil {
		h.logError(ctx, "open appeal", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, openResponse{
		Appeal:      toAppealResponse(a),
		AccessToken: token,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	id, ok := h.appealID(w, r)
	if !ok {
		return
	}

	thread, err := h.service.Get(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toThreadResponse(thread))
}

func (h *Handler) handleGetByToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.appealID(w, r)
	if !ok {
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	thread, err := h.service.GetByToken(ctx, id, token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toThreadResponse(thread))
}

func (h *Handler) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.appealID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeValidJSON[messageRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	m, err := h.service.AddMessage(ctx, actor, id, req.Content, req.Internal)
	if err != nil {
		h.logError(ctx, "add appeal message", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, messageResponse{
		ID:         m.ID.String(),
		SenderRole: string(m.SenderRole),
		SenderName: m.SenderName,
		Content:    m.Content,
		IsInternal: m.IsInternal,
		CreatedAt:  m.CreatedAt,
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "resolve", func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Appeal, error) {
		return h.service.Resolve(ctx, actor, id, req.Note)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject", func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Appeal, error) {
		return h.service.Reject(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)

	id, ok := h.appealID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Reopen(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAppealResponse(a))
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, name string,
	call func(ctx context.Context, actor identity.Actor, id uuid.UUID, req decisionRequest) (*models.Appeal, error)) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.appealID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[decisionRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	a, err := call(ctx, actor, id, *req)
	if err != nil {
		h.logError(ctx, name+" appeal", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAppealResponse(a))
}

func (h *Handler) appealID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "appealID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid appeal id"))
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
