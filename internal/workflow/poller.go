package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// ProgressFunc receives each observed non-terminal status. Invocations are
// asynchronous so a slow consumer cannot stall the polling cadence.
type ProgressFunc func(status string)

// Poller re-reads a job row at a fixed cadence until it reaches a terminal
// status or the maximum wall-clock duration elapses.
type Poller struct {
	store       store.Store
	interval    time.Duration
	maxDuration time.Duration
}

// NewPoller creates a Poller with the given cadence and overall deadline.
func NewPoller(s store.Store, interval, maxDuration time.Duration) *Poller {
	return &Poller{store: s, interval: interval, maxDuration: maxDuration}
}

// Poll blocks until the job is terminal, the max duration elapses, or ctx is
// cancelled. Transient read errors are swallowed and retried on the next
// tick; they never abort the loop. On timeout it returns ErrPollTimeout;
// the workflow may still complete out-of-band.
func (p *Poller) Poll(ctx context.Context, jobID, userID uuid.UUID, onProgress ProgressFunc) (*models.AnalysisJob, error) {
	deadline := time.NewTimer(p.maxDuration)
	defer deadline.Stop()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.store.GetJob(ctx, jobID, userID)
		switch {
		case err != nil:
			slog.Warn("job poll read failed, retrying", "job_id", jobID, "error", err)
		case models.TerminalStatus(job.Status):
			return job, nil
		default:
			if onProgress != nil {
				go onProgress(job.Status)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrPollTimeout
		case <-ticker.C:
		}
	}
}
