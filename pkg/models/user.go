package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account holder. Raw passwords are never stored; only the
// bcrypt hash is persisted.
type User struct {
	ID            uuid.UUID `db:"id"              json:"id"`
	Email         string    `db:"email"           json:"email"`
	FullName      string    `db:"full_name"       json:"full_name"`
	Role          string    `db:"role"            json:"role"`
	PasswordHash  string    `db:"password_hash"   json:"-"`
	GoogleMapsURL *string   `db:"google_maps_url" json:"google_maps_url,omitempty"`
	WebsiteURL    *string   `db:"website_url"     json:"website_url,omitempty"`
	CreatedAt     time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updated_at"`
}

// UserSettings holds per-user preferences and consent state.
// Consent dates are set server-side whenever the corresponding flag flips on.
type UserSettings struct {
	UserID                   uuid.UUID  `db:"user_id"                     json:"user_id"`
	NotificationsEnabled     bool       `db:"notifications_enabled"       json:"notifications_enabled"`
	WeeklyDigest             bool       `db:"weekly_digest"               json:"weekly_digest"`
	DataRetentionConsent     bool       `db:"data_retention_consent"      json:"data_retention_consent"`
	DataRetentionConsentDate *time.Time `db:"data_retention_consent_date" json:"data_retention_consent_date,omitempty"`
	MarketingConsent         bool       `db:"marketing_consent"           json:"marketing_consent"`
	MarketingConsentDate     *time.Time `db:"marketing_consent_date"      json:"marketing_consent_date,omitempty"`
	UpdatedAt                time.Time  `db:"updated_at"                  json:"updated_at"`
}

// Session is an authenticated session resolved from an opaque bearer token.
// Sessions live in redis with a TTL; there is no ambient global session state.
type Session struct {
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
