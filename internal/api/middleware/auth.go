package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// SessionResolver resolves a bearer token to a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Session, error)
}

// Auth provides session authentication and role-checking middleware.
type Auth struct {
	sessions SessionResolver
}

// NewAuth creates a new Auth middleware.
func NewAuth(sessions SessionResolver) *Auth {
	return &Auth{sessions: sessions}
}

// Authenticate resolves the Bearer token to a session and stores it in the
// request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		session, err := a.sessions.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				response.Error(w, http.StatusUnauthorized,
					"INVALID_TOKEN", "Session expired or unknown", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to resolve session", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetSession(r.Context(), session)))
	})
}

// RequireAdmin rejects requests whose session is not an admin account.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r)
		if !ok || !session.IsAdmin() {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
