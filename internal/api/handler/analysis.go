package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/report"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/internal/workflow"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// Runner is the orchestrator surface the handlers depend on.
type Runner interface {
	Run(ctx context.Context, session *models.Session, kind string, input map[string]any, onProgress workflow.ProgressFunc) workflow.Result
	JobStatus(ctx context.Context, jobID, userID uuid.UUID) (*models.AnalysisJob, error)
}

type runResponse struct {
	Success         bool      `json:"success"`
	Data            any       `json:"data,omitempty"`
	Error           string    `json:"error,omitempty"`
	Score           *int      `json:"score,omitempty"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	JobID           uuid.UUID `json:"job_id"`
}

// NewRunAnalysisHandler returns the handler for POST /api/v1/analyses/run.
// The request blocks until the run reaches a terminal outcome or the poll
// deadline; abandoning the request leaves the job observable via the job
// status endpoint.
func NewRunAnalysisHandler(runner Runner, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Kind  string         `json:"kind"`
			Input map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if !models.ValidKind(req.Kind) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "kind must be reviews or seo", nil)
			return
		}
		if err := validateInput(req.Kind, req.Input); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		recordActivity(r, st, &session.UserID, session.Email, "analysis_started",
			map[string]any{"kind": req.Kind})

		result := runner.Run(r.Context(), session, req.Kind, req.Input, nil)

		resp := runResponse{
			Success:         result.Success,
			Data:            result.Data,
			Error:           result.Error,
			ExecutionTimeMs: result.ExecutionTime.Milliseconds(),
			JobID:           result.JobID,
		}
		if result.Success {
			resp.Score = report.ExtractScore(result.Data, req.Kind)
		}
		response.JSON(w, resp)
	}
}

// NewJobStatusHandler returns the handler for GET /api/v1/jobs/{jobID}.
func NewJobStatusHandler(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid job ID", nil)
			return
		}

		job, err := runner.JobStatus(r.Context(), jobID, session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load job", nil)
			return
		}
		response.JSON(w, job)
	}
}

// validateInput checks the kind-specific required input fields.
func validateInput(kind string, input map[string]any) error {
	field := map[string]string{
		models.AnalysisKindReviews: "google_maps_url",
		models.AnalysisKindSEO:     "website_url",
	}[kind]

	v, ok := input[field].(string)
	if !ok || v == "" {
		return errors.New(field + " is required")
	}
	return nil
}
