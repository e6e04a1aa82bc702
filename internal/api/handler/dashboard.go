package handler

import (
	"errors"
	"net/http"
	"strconv"

	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/metrics"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// NewDashboardStatsHandler returns the handler for GET /api/v1/dashboard/stats.
func NewDashboardStatsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		stats, err := st.DashboardStats(r.Context(), session.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats", nil)
			return
		}
		if stats.MetricsHistory == nil {
			stats.MetricsHistory = []models.GoogleMetricsSnapshot{}
		}
		response.JSON(w, stats)
	}
}

// NewMetricsHistoryHandler returns the handler for GET /api/v1/metrics/google.
func NewMetricsHistoryHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		limit := 26
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		history, err := st.ListMetricsHistory(r.Context(), session.UserID, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load metrics", nil)
			return
		}
		if history == nil {
			history = []models.GoogleMetricsSnapshot{}
		}
		response.JSON(w, history)
	}
}

// NewRefreshMetricsHandler returns the handler for POST /api/v1/metrics/google/refresh.
// It samples the user's listing immediately instead of waiting for the
// periodic collector.
func NewRefreshMetricsHandler(collector *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		snap, err := collector.RefreshUser(r.Context(), session.UserID)
		if err != nil {
			switch {
			case errors.Is(err, metrics.ErrNoMapsURL):
				response.Error(w, http.StatusBadRequest, "NO_MAPS_URL",
					"Set a Google Maps URL in your profile first", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
			default:
				response.Error(w, http.StatusBadGateway, "FETCH_FAILED",
					"Could not fetch listing metrics", nil)
			}
			return
		}
		response.JSON(w, snap)
	}
}
