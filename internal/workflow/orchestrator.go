// Package workflow owns the lifecycle of one external analysis run:
// create the job row, trigger the workflow engine, poll the row until a
// terminal status, and report the outcome.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/internal/cache"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

const jobStatusCacheTTL = 30 * time.Minute

// Result is the terminal outcome of one orchestrated run. Errors are
// reported here, never as a returned error: a run that fails is still a
// completed orchestration.
type Result struct {
	Success       bool
	Data          any
	Error         string
	ExecutionTime time.Duration
	JobID         uuid.UUID
}

// Orchestrator composes the trigger and poller around a single job
// lifecycle. Concurrent runs are independent; the job store is the only
// shared state and isolates rows by owner.
type Orchestrator struct {
	store   store.Store
	cache   cache.Cache
	trigger Trigger
	poller  *Poller
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(s store.Store, c cache.Cache, t Trigger, p *Poller) *Orchestrator {
	return &Orchestrator{store: s, cache: c, trigger: t, poller: p}
}

// Run executes create → processing → trigger → poll → finalize for one
// analysis on behalf of session's user. Row creation failure aborts before
// any trigger; trigger failure marks the job failed without polling; a poll
// timeout is reported with TimeoutMessage, distinct from a remote failure.
// The orchestrator never retries; a retry is a new invocation.
func (o *Orchestrator) Run(ctx context.Context, session *models.Session, kind string, input map[string]any, onProgress ProgressFunc) Result {
	start := time.Now()

	if !models.ValidKind(kind) {
		return Result{Success: false, Error: fmt.Sprintf("unknown analysis kind %q", kind)}
	}

	job := &models.AnalysisJob{
		ID:        uuid.New(),
		UserID:    session.UserID,
		Kind:      kind,
		Status:    models.JobStatusPending,
		Input:     input,
		CreatedAt: start.UTC(),
		UpdatedAt: start.UTC(),
	}

	if err := o.store.CreateJob(ctx, job); err != nil {
		return Result{Success: false, Error: err.Error(), ExecutionTime: time.Since(start)}
	}
	o.cacheStatus(ctx, job.ID, models.JobStatusPending)

	// Bookkeeping transition; nothing remote has been confirmed yet.
	if err := o.store.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing); err != nil {
		return o.fail(ctx, job.ID, start, fmt.Sprintf("updating job status: %v", err))
	}
	o.cacheStatus(ctx, job.ID, models.JobStatusProcessing)

	payload := map[string]any{"job_id": job.ID.String()}
	for k, v := range input {
		payload[k] = v
	}

	if err := o.trigger.Trigger(ctx, kind, payload); err != nil {
		slog.Warn("workflow trigger failed", "job_id", job.ID, "kind", kind, "error", err)
		return o.fail(ctx, job.ID, start, err.Error())
	}

	if onProgress != nil {
		go onProgress(models.JobStatusProcessing)
	}

	done, err := o.poller.Poll(ctx, job.ID, session.UserID, onProgress)
	if err != nil {
		if errors.Is(err, ErrPollTimeout) {
			// Do not mark the row failed: the workflow may still write a
			// terminal state, observable via JobStatus.
			return Result{
				Success:       false,
				Error:         TimeoutMessage,
				ExecutionTime: time.Since(start),
				JobID:         job.ID,
			}
		}
		return Result{
			Success:       false,
			Error:         err.Error(),
			ExecutionTime: time.Since(start),
			JobID:         job.ID,
		}
	}

	o.cacheStatus(ctx, done.ID, done.Status)

	if done.Status == models.JobStatusFailed {
		msg := "Analysis failed"
		if done.ErrorMessage != nil && *done.ErrorMessage != "" {
			msg = *done.ErrorMessage
		}
		return Result{
			Success:       false,
			Error:         msg,
			ExecutionTime: time.Since(start),
			JobID:         job.ID,
		}
	}

	return Result{
		Success:       true,
		Data:          done.Result,
		ExecutionTime: time.Since(start),
		JobID:         job.ID,
	}
}

// JobStatus looks up a job for out-of-band polling after the caller
// abandoned a run. Reads have no side effects.
func (o *Orchestrator) JobStatus(ctx context.Context, jobID, userID uuid.UUID) (*models.AnalysisJob, error) {
	return o.store.GetJob(ctx, jobID, userID)
}

// fail marks the job failed with msg and returns the matching Result.
func (o *Orchestrator) fail(ctx context.Context, jobID uuid.UUID, start time.Time, msg string) Result {
	if err := o.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed, store.WithErrorMessage(msg)); err != nil {
		slog.Error("marking job failed", "job_id", jobID, "error", err)
	}
	o.cacheStatus(ctx, jobID, models.JobStatusFailed)
	return Result{
		Success:       false,
		Error:         msg,
		ExecutionTime: time.Since(start),
		JobID:         jobID,
	}
}

func (o *Orchestrator) cacheStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.SetJobStatus(ctx, jobID, status, jobStatusCacheTTL); err != nil {
		slog.Warn("caching job status", "job_id", jobID, "error", err)
	}
}
