package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

func TestGetSettings_DefaultsWhenMissing(t *testing.T) {
	st := newFakeStore()
	h := NewGetSettingsHandler(st)

	req := authedRequest(t, http.MethodGet, "/api/v1/settings", nil, userSession())
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.UserSettings
	decodeData(t, rec, &got)
	if !got.NotificationsEnabled {
		t.Error("defaults should enable notifications")
	}
	if got.DataRetentionConsent {
		t.Error("defaults should not grant consent")
	}
}

func TestUpdateSettings_StampsConsentDate(t *testing.T) {
	st := newFakeStore()
	session := userSession()
	h := NewUpdateSettingsHandler(st)

	req := authedRequest(t, http.MethodPatch, "/api/v1/settings", map[string]any{
		"data_retention_consent": true,
		"weekly_digest":          true,
	}, session)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.UserSettings
	decodeData(t, rec, &got)
	if !got.DataRetentionConsent || got.DataRetentionConsentDate == nil {
		t.Error("consent grant must stamp its date")
	}
	if !got.WeeklyDigest {
		t.Error("weekly digest not applied")
	}

	// Flipping the flag off keeps the historical date.
	req = authedRequest(t, http.MethodPatch, "/api/v1/settings", map[string]any{
		"data_retention_consent": false,
	}, session)
	rec = httptest.NewRecorder()
	h(rec, req)

	decodeData(t, rec, &got)
	if got.DataRetentionConsent {
		t.Error("consent should be revoked")
	}
	if got.DataRetentionConsentDate == nil {
		t.Error("original consent date should be kept for the audit trail")
	}
	if !got.WeeklyDigest {
		t.Error("untouched fields must survive a partial update")
	}
}

func TestUpdateProfile_PatchesOnlyProvidedFields(t *testing.T) {
	st := newFakeStore()
	session := userSession()
	maps := "https://maps.google.com/before"
	st.users[session.UserID] = &models.User{
		ID:            session.UserID,
		Email:         session.Email,
		FullName:      "Before",
		Role:          models.RoleUser,
		GoogleMapsURL: &maps,
	}

	h := NewUpdateProfileHandler(st)
	req := authedRequest(t, http.MethodPatch, "/api/v1/profile", map[string]any{
		"full_name": "After",
	}, session)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.User
	decodeData(t, rec, &got)
	if got.FullName != "After" {
		t.Errorf("expected renamed user, got %q", got.FullName)
	}
	if got.GoogleMapsURL == nil || *got.GoogleMapsURL != maps {
		t.Error("maps URL must survive a name-only update")
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	h := NewUpdateProfileHandler(newFakeStore())
	req := authedRequest(t, http.MethodPatch, "/api/v1/profile", map[string]any{
		"full_name": "Ghost",
	}, userSession())
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
