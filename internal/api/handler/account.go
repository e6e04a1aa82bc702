package handler

import (
	"errors"
	"net/http"
	"time"

	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// NewExportDataHandler returns the handler for GET /api/v1/export: the full
// data takeout for the requesting account.
func NewExportDataHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		user, err := st.GetUser(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Export failed", nil)
			return
		}

		export := models.UserDataExport{
			ExportedAt:  time.Now().UTC(),
			UserProfile: *user,
		}

		if settings, err := st.GetUserSettings(r.Context(), session.UserID); err == nil {
			export.UserSettings = settings
		}
		if history, err := st.ListMetricsHistory(r.Context(), session.UserID, 200); err == nil {
			export.MetricsHistory = history
		}
		if analyses, err := st.ListAnalyses(r.Context(), session.UserID); err == nil {
			for _, a := range analyses {
				export.Analyses = append(export.Analyses, *a)
			}
		}

		recordActivity(r, st, &session.UserID, session.Email, "data_exported", nil)
		response.JSON(w, export)
	}
}

// NewDeleteAccountHandler returns the handler for DELETE /api/v1/account.
// Dependent rows cascade in the database.
func NewDeleteAccountHandler(st store.Store, sessions *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		recordActivity(r, st, nil, session.Email, "account_deleted", nil)

		if err := st.DeleteUser(r.Context(), session.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete account", nil)
			return
		}

		// Revoke the now-orphaned token; on failure it just rides out its TTL.
		_ = sessions.Logout(r.Context(), session.Token)
		response.NoContent(w)
	}
}
