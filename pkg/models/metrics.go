package models

import (
	"time"

	"github.com/google/uuid"
)

// GoogleMetricsSnapshot is one observed (rating, review count) pair for a
// user's Google Maps listing. The collector records one row per run; the
// dashboard charts the series.
type GoogleMetricsSnapshot struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	UserID       uuid.UUID `db:"user_id"       json:"user_id"`
	GoogleRating *float64  `db:"google_rating" json:"google_rating,omitempty"`
	ReviewCount  *int      `db:"review_count"  json:"review_count,omitempty"`
	RecordedAt   time.Time `db:"recorded_at"   json:"recorded_at"`
}

// ActivityLog records a user-visible action for the admin audit trail.
type ActivityLog struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	UserID    *uuid.UUID     `db:"user_id"    json:"user_id,omitempty"`
	UserEmail *string        `db:"user_email" json:"user_email,omitempty"`
	Action    string         `db:"action"     json:"action"`
	Details   map[string]any `db:"details"    json:"details"`
	IPAddress *string        `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent *string        `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
