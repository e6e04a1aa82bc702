package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/internal/cache"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) CreateUser(_ context.Context, _ *models.User) error { return nil }
func (s *testStore) GetUser(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListUsers(_ context.Context) ([]*models.User, error) { return nil, nil }
func (s *testStore) UpdateUserProfile(_ context.Context, _ uuid.UUID, _ store.ProfileUpdate) error {
	return nil
}
func (s *testStore) UpdateUserRole(_ context.Context, _ uuid.UUID, _ string) error { return nil }
func (s *testStore) UpdatePasswordHash(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
func (s *testStore) DeleteUser(_ context.Context, _ uuid.UUID) error { return nil }
func (s *testStore) GetUserSettings(_ context.Context, _ uuid.UUID) (*models.UserSettings, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateUserSettings(_ context.Context, _ *models.UserSettings) error { return nil }
func (s *testStore) CreateJob(_ context.Context, _ *models.AnalysisJob) error { return nil }
func (s *testStore) GetJob(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.AnalysisJob, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) UpdateJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}
func (s *testStore) CreateAnalysis(_ context.Context, _ *models.Analysis) error { return nil }
func (s *testStore) GetAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.Analysis, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListAnalyses(_ context.Context, _ uuid.UUID) ([]*models.Analysis, error) {
	return nil, nil
}
func (s *testStore) DeleteAnalysis(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (s *testStore) InsertMetricsSnapshot(_ context.Context, _ *models.GoogleMetricsSnapshot) error {
	return nil
}
func (s *testStore) ListMetricsHistory(_ context.Context, _ uuid.UUID, _ int) ([]models.GoogleMetricsSnapshot, error) {
	return nil, nil
}
func (s *testStore) InsertActivity(_ context.Context, _ *models.ActivityLog) error { return nil }
func (s *testStore) ListRecentActivity(_ context.Context, _ int) ([]models.ActivityLog, error) {
	return nil, nil
}
func (s *testStore) DashboardStats(_ context.Context, _ uuid.UUID) (*models.DashboardStats, error) {
	return nil, nil
}
func (s *testStore) AdminStats(_ context.Context) (*models.AdminStats, error) { return nil, nil }

var _ store.Store = (*testStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error { return nil }
func (c *testCache) Ping(_ context.Context) error { return c.pingErr }
func (c *testCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *testCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler_BothDegraded(t *testing.T) {
	h := healthHandler(
		&testStore{pingErr: errors.New("db down")},
		&testCache{pingErr: errors.New("redis down")},
	)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "WORKFLOW_REVIEWS_URL", "WORKFLOW_SEO_URL",
	} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WORKFLOW_REVIEWS_URL", "http://localhost:5678/webhook/reviews")
	t.Setenv("WORKFLOW_SEO_URL", "http://localhost:5678/webhook/seo")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
