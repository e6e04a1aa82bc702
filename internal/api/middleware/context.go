package middleware

import (
	"context"
	"net/http"

	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

type contextKey string

const sessionKey contextKey = "session"

func SetSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func GetSession(r *http.Request) (*models.Session, bool) {
	s, ok := r.Context().Value(sessionKey).(*models.Session)
	return s, ok
}
