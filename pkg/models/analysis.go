package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a saved run the user chose to keep (the archives view).
// It copies the terminal job result at save time and is never mutated
// afterwards; the only lifecycle operations are create and delete.
type Analysis struct {
	ID              uuid.UUID      `db:"id"                json:"id"`
	UserID          uuid.UUID      `db:"user_id"           json:"user_id"`
	Kind            string         `db:"kind"              json:"kind"`
	Input           map[string]any `db:"input"             json:"input"`
	Result          any            `db:"result"            json:"result,omitempty"`
	Score           *int           `db:"score"             json:"score,omitempty"`
	ExecutionTimeMs *int64         `db:"execution_time_ms" json:"execution_time_ms,omitempty"`
	CreatedAt       time.Time      `db:"created_at"        json:"created_at"`
}
