// Package httptransport assembles the HTTP surface: middleware chain,
// domain handlers, the operator audit endpoint, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arida/internal/audit"
	"arida/internal/platform/config"
	"arida/internal/platform/metrics"
	"arida/internal/platform/middleware"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router needs. Handlers register their own
// routes; the router owns cross-cutting middleware and operator routes.
type Deps struct {
	Config    config.Server
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Petitions Registrar
	Appeals   PublicRegistrar
	Audit     *audit.Publisher
}

// Registrar is a domain handler that mounts authenticated routes.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar additionally mounts routes that bypass session auth.
type PublicRegistrar interface {
	Registrar
	RegisterPublic(r chi.Router)
}

// NewRouter wires the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Device)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token-based appeal access works without a session so creators can
	// follow the emailed link directly.
	d.Appeals.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Config.JWTSigningKey, d.Logger))
		d.Petitions.Register(r)
		d.Appeals.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(d.Config.AdminToken, d.Logger))
		r.Get("/admin/audit", handleAuditList(d.Audit, d.Logger))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type auditEntryResponse struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id"`
	ActorName  string            `json:"actor_name"`
	ActorRole  string            `json:"actor_role"`
	TargetType string            `json:"target_type"`
	TargetID   string            `json:"target_id"`
	TargetName string            `json:"target_name,omitempty"`
	Device     string            `json:"device,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// handleAuditList serves the operator view of the audit trail, newest
// first, filtered by action prefix and exact actor name.
func handleAuditList(publisher *audit.Publisher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := audit.Filter{
			ActionPrefix: q.Get("action"),
			ActorName:    q.Get("actor"),
		}

		limit := 0
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
				return
			}
			limit = n
		}

		entries, err := publisher.List(r.Context(), filter, limit)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to list audit entries",
				"request_id", middleware.GetRequestID(r.Context()),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
			return
		}

		out := make([]auditEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, auditEntryResponse{
				ID:         e.ID.String(),
				Timestamp:  e.Timestamp,
				Action:     e.Action,
				ActorID:    e.ActorID,
				ActorName:  e.ActorName,
				ActorRole:  e.ActorRole,
				TargetType: e.TargetType,
				TargetID:   e.TargetID,
				TargetName: e.TargetName,
				Device:     e.Device,
				Details:    e.Details,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
	}
}
