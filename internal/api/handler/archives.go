package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/report"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// NewSaveAnalysisHandler returns the handler for POST /api/v1/archives.
// Saving copies a terminal result into the archives; the record is immutable
// afterwards.
func NewSaveAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Kind            string         `json:"kind"`
			Input           map[string]any `json:"input"`
			Result          any            `json:"result"`
			ExecutionTimeMs *int64         `json:"execution_time_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if !models.ValidKind(req.Kind) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "kind must be reviews or seo", nil)
			return
		}

		analysis := &models.Analysis{
			ID:              uuid.New(),
			UserID:          session.UserID,
			Kind:            req.Kind,
			Input:           req.Input,
			Result:          req.Result,
			Score:           report.ExtractScore(req.Result, req.Kind),
			ExecutionTimeMs: req.ExecutionTimeMs,
			CreatedAt:       time.Now().UTC(),
		}

		if err := st.CreateAnalysis(r.Context(), analysis); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save analysis", nil)
			return
		}

		recordActivity(r, st, &session.UserID, session.Email, "analysis_saved",
			map[string]any{"kind": req.Kind, "analysis_id": analysis.ID.String()})
		response.Created(w, analysis)
	}
}

// NewListAnalysesHandler returns the handler for GET /api/v1/archives.
func NewListAnalysesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		analyses, err := st.ListAnalyses(r.Context(), session.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list analyses", nil)
			return
		}
		if analyses == nil {
			analyses = []*models.Analysis{}
		}
		response.JSON(w, analyses)
	}
}

// NewGetAnalysisHandler returns the handler for GET /api/v1/archives/{analysisID}.
func NewGetAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid analysis ID", nil)
			return
		}

		analysis, err := st.GetAnalysis(r.Context(), id, session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analysis", nil)
			return
		}
		response.JSON(w, analysis)
	}
}

// NewDeleteAnalysisHandler returns the handler for DELETE /api/v1/archives/{analysisID}.
func NewDeleteAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid analysis ID", nil)
			return
		}

		if err := st.DeleteAnalysis(r.Context(), id, session.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete analysis", nil)
			return
		}

		recordActivity(r, st, &session.UserID, session.Email, "analysis_deleted",
			map[string]any{"analysis_id": id.String()})
		response.NoContent(w)
	}
}
