package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"arida/internal/identity"
)

type actorKey struct{}

// GetActor retrieves the authenticated actor from the context.
// Returns a zero Actor when no auth middleware ran.
func GetActor(ctx context.Context) identity.Actor {
	if a, ok := ctx.Value(actorKey{}).(identity.Actor); ok {
		return a
	}
	return identity.Actor{}
}

// WithActor stores an actor in context. Exported for tests that exercise
// handlers without the full middleware chain.
func WithActor(ctx context.Context, actor identity.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// actorClaims is the shape of the identity provider's JWT payload.
// The role claim is treated as already verified upstream.
type actorClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the Bearer token and puts the actor into context.
func RequireAuth(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				requestID := GetRequestID(r.Context())
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims := &actorClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(signingKey), nil
			})
			if err != nil || !parsed.Valid {
				requestID := GetRequestID(r.Context())
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			role := identity.Role(claims.Role)
			if !role.IsValid() {
				role = identity.RoleUser
			}

			actor := identity.Actor{
				ID:    claims.Subject,
				Name:  claims.Name,
				Email: claims.Email,
				Role:  role,
			}
			if actor.IsZero() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token is missing a subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects actors whose role fails the check. Chain after RequireAuth.
func RequireRole(check func(identity.Role) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r.Context())
			if actor.IsZero() || !check(actor.Role) {
				requestID := GetRequestID(r.Context())
				logger.WarnContext(r.Context(), "forbidden - insufficient role",
					"role", actor.Role,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
