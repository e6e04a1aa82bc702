package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// NewGetSettingsHandler returns the handler for GET /api/v1/settings.
// Users without a settings row get the defaults.
func NewGetSettingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		settings, err := st.GetUserSettings(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.JSON(w, &models.UserSettings{
					UserID:               session.UserID,
					NotificationsEnabled: true,
				})
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings", nil)
			return
		}
		response.JSON(w, settings)
	}
}

// NewUpdateSettingsHandler returns the handler for PATCH /api/v1/settings.
// Consent dates are stamped server-side when a consent flag turns on.
func NewUpdateSettingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			NotificationsEnabled *bool `json:"notifications_enabled"`
			WeeklyDigest         *bool `json:"weekly_digest"`
			DataRetentionConsent *bool `json:"data_retention_consent"`
			MarketingConsent     *bool `json:"marketing_consent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		current, err := st.GetUserSettings(r.Context(), session.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settings", nil)
				return
			}
			current = &models.UserSettings{UserID: session.UserID, NotificationsEnabled: true}
		}

		now := time.Now().UTC()
		if req.NotificationsEnabled != nil {
			current.NotificationsEnabled = *req.NotificationsEnabled
		}
		if req.WeeklyDigest != nil {
			current.WeeklyDigest = *req.WeeklyDigest
		}
		if req.DataRetentionConsent != nil && *req.DataRetentionConsent != current.DataRetentionConsent {
			current.DataRetentionConsent = *req.DataRetentionConsent
			if current.DataRetentionConsent {
				current.DataRetentionConsentDate = &now
			}
		}
		if req.MarketingConsent != nil && *req.MarketingConsent != current.MarketingConsent {
			current.MarketingConsent = *req.MarketingConsent
			if current.MarketingConsent {
				current.MarketingConsentDate = &now
			}
		}

		if err := st.UpdateUserSettings(r.Context(), current); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update settings", nil)
			return
		}
		response.JSON(w, current)
	}
}

// NewUpdateProfileHandler returns the handler for PATCH /api/v1/profile.
func NewUpdateProfileHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			FullName      *string `json:"full_name"`
			GoogleMapsURL *string `json:"google_maps_url"`
			WebsiteURL    *string `json:"website_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		update := store.ProfileUpdate{
			FullName:      req.FullName,
			GoogleMapsURL: req.GoogleMapsURL,
			WebsiteURL:    req.WebsiteURL,
		}
		if err := st.UpdateUserProfile(r.Context(), session.UserID, update); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile", nil)
			return
		}

		user, err := st.GetUser(r.Context(), session.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile", nil)
			return
		}
		response.JSON(w, user)
	}
}

// NewChangePasswordHandler returns the handler for POST /api/v1/auth/password.
func NewChangePasswordHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		err := svc.ChangePassword(r.Context(), session.UserID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Current password is incorrect", nil)
			case errors.Is(err, auth.ErrPasswordTooShort):
				response.Error(w, http.StatusBadRequest, "WEAK_PASSWORD", err.Error(), nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to change password", nil)
			}
			return
		}
		response.NoContent(w)
	}
}
