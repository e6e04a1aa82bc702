// Package models contains shared data models used across the Shorebreak codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	AnalysisKindReviews = "reviews"
	AnalysisKindSEO     = "seo"
)

// ValidKind reports whether kind is one of the supported analysis kinds.
func ValidKind(kind string) bool {
	return kind == AnalysisKindReviews || kind == AnalysisKindSEO
}

// TerminalStatus reports whether status is completed or failed.
// Terminal jobs never transition again.
func TerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// AnalysisJob tracks one invocation of the external analysis workflow.
// The orchestrator inserts the row as pending, the remote workflow writes
// result or error back, and clients poll until the status is terminal.
// Result and ErrorMessage are mutually exclusive and absent until then.
type AnalysisJob struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	UserID       uuid.UUID      `db:"user_id"       json:"user_id"`
	Kind         string         `db:"kind"          json:"kind"`
	Status       string         `db:"status"        json:"status"`
	Input        map[string]any `db:"input"         json:"input"`
	Result       any            `db:"result"        json:"result,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
	CompletedAt  *time.Time     `db:"completed_at"  json:"completed_at,omitempty"`
}
