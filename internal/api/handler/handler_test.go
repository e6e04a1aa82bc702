package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	settings map[uuid.UUID]*models.UserSettings
	jobs     map[uuid.UUID]*models.AnalysisJob
	analyses map[uuid.UUID]*models.Analysis
	activity []*models.ActivityLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*models.User),
		settings: make(map[uuid.UUID]*models.UserSettings),
		jobs:     make(map[uuid.UUID]*models.AnalysisJob),
		analyses: make(map[uuid.UUID]*models.Analysis),
	}
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateKey
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeStore) UpdateUserProfile(_ context.Context, id uuid.UUID, update store.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.GoogleMapsURL != nil {
		u.GoogleMapsURL = update.GoogleMapsURL
	}
	if update.WebsiteURL != nil {
		u.WebsiteURL = update.WebsiteURL
	}
	return nil
}

func (s *fakeStore) UpdateUserRole(_ context.Context, id uuid.UUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *fakeStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *fakeStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	delete(s.settings, id)
	return nil
}

func (s *fakeStore) GetUserSettings(_ context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.settings[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return set, nil
}

func (s *fakeStore) UpdateUserSettings(_ context.Context, settings *models.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = settings
	return nil
}

func (s *fakeStore) CreateJob(_ context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, id uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return nil, store.ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status string, _ ...store.JobUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status = status
	return nil
}

func (s *fakeStore) CreateAnalysis(_ context.Context, analysis *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.ID] = analysis
	return nil
}

func (s *fakeStore) GetAnalysis(_ context.Context, id uuid.UUID, userID uuid.UUID) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) ListAnalyses(_ context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Analysis
	for _, a := range s.analyses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteAnalysis(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok || a.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.analyses, id)
	return nil
}

func (s *fakeStore) InsertMetricsSnapshot(_ context.Context, _ *models.GoogleMetricsSnapshot) error {
	return nil
}

func (s *fakeStore) ListMetricsHistory(_ context.Context, _ uuid.UUID, _ int) ([]models.GoogleMetricsSnapshot, error) {
	return nil, nil
}

func (s *fakeStore) InsertActivity(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, entry)
	return nil
}

func (s *fakeStore) ListRecentActivity(_ context.Context, _ int) ([]models.ActivityLog, error) {
	return nil, nil
}

func (s *fakeStore) DashboardStats(_ context.Context, _ uuid.UUID) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

func (s *fakeStore) AdminStats(_ context.Context) (*models.AdminStats, error) {
	return &models.AdminStats{}, nil
}

var _ store.Store = (*fakeStore)(nil)

// --- helpers ---

func userSession() *models.Session {
	return &models.Session{
		Token:     "user-token",
		UserID:    uuid.New(),
		Role:      models.RoleUser,
		Email:     "owner@example.com",
		CreatedAt: time.Now(),
	}
}

func adminSession() *models.Session {
	s := userSession()
	s.Role = models.RoleAdmin
	s.Email = "admin@example.com"
	return s
}

// authedRequest builds a request carrying a resolved session, as the auth
// middleware would leave it.
func authedRequest(t *testing.T, method, target string, body any, session *models.Session) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	if session != nil {
		r = r.WithContext(mw.SetSession(r.Context(), session))
	}
	return r
}

// decodeData unmarshals the {"data": ...} envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v (body %s)", err, rec.Body.String())
	}
}

// errorCode extracts the error code from an error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}
