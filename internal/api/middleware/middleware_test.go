package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockResolver struct {
	session *models.Session
	err     error
}

func (m *mockResolver) Resolve(_ context.Context, token string) (*models.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := *m.session
	s.Token = token
	return &s, nil
}

type mockCache struct {
	counter int64
	err     error
}

func (m *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (m *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (m *mockCache) Delete(_ context.Context, _ string) error                         { return nil }
func (m *mockCache) Ping(_ context.Context) error                                     { return nil }
func (m *mockCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (m *mockCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counter++
	return m.counter, nil
}

func testSession(role string) *models.Session {
	return &models.Session{
		UserID:    uuid.New(),
		Role:      role,
		Email:     "owner@example.com",
		CreatedAt: time.Now(),
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- Authenticate ---

func TestAuthenticate_ValidToken(t *testing.T) {
	session := testSession(models.RoleUser)
	a := mw.NewAuth(&mockResolver{session: session})

	var gotSession *models.Session
	handler := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession, _ = mw.GetSession(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotSession)
	assert.Equal(t, session.UserID, gotSession.UserID)
	assert.Equal(t, "abc123", gotSession.Token)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	a := mw.NewAuth(&mockResolver{session: testSession(models.RoleUser)})
	handler := a.Authenticate(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	a := mw.NewAuth(&mockResolver{session: testSession(models.RoleUser)})
	handler := a.Authenticate(okHandler())

	for _, header := range []string{"abc123", "Basic abc123", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticate_UnknownSession(t *testing.T) {
	a := mw.NewAuth(&mockResolver{err: auth.ErrSessionNotFound})
	handler := a.Authenticate(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_TOKEN", body.Error.Code)
}

func TestAuthenticate_ResolverFailure(t *testing.T) {
	a := mw.NewAuth(&mockResolver{err: errors.New("redis down")})
	handler := a.Authenticate(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- RequireAdmin ---

func TestRequireAdmin(t *testing.T) {
	a := mw.NewAuth(&mockResolver{})
	handler := a.RequireAdmin(okHandler())

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(mw.SetSession(req.Context(), testSession(models.RoleAdmin)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(mw.SetSession(req.Context(), testSession(models.RoleUser)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no session forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// --- RateLimit ---

func rateLimitedRequest(session *models.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if session != nil {
		req = req.WithContext(mw.SetSession(req.Context(), session))
	}
	return req
}

func TestRateLimit_AllowsWithinLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 5)
	handler := rl.Limit(okHandler())
	session := testSession(models.RoleUser)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, rateLimitedRequest(session))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 2)
	handler := rl.Limit(okHandler())
	session := testSession(models.RoleUser)

	handler.ServeHTTP(httptest.NewRecorder(), rateLimitedRequest(session))
	handler.ServeHTTP(httptest.NewRecorder(), rateLimitedRequest(session))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rateLimitedRequest(session))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_FailsOpenOnCacheError(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{err: errors.New("redis down")}, 1)
	handler := rl.Limit(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rateLimitedRequest(testSession(models.RoleUser)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_PassesThroughWithoutSession(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 1)
	handler := rl.Limit(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rateLimitedRequest(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
