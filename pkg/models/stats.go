package models

import "time"

// DashboardStats is the per-user dashboard aggregate.
type DashboardStats struct {
	CurrentRating      *float64                `json:"current_rating"`
	CurrentReviewCount *int                    `json:"current_review_count"`
	FirstRating        *float64                `json:"first_rating"`
	FirstReviewCount   *int                    `json:"first_review_count"`
	TotalAnalyses      int                     `json:"total_analyses"`
	LastSEOScore       *int                    `json:"last_seo_score"`
	MetricsHistory     []GoogleMetricsSnapshot `json:"metrics_history"`
}

// AdminStats is the platform-wide aggregate shown to admins.
type AdminStats struct {
	TotalUsers        int              `json:"total_users"`
	TotalAnalyses     int              `json:"total_analyses"`
	AnalysesThisMonth int              `json:"analyses_this_month"`
	WeeklyActivity    []WeeklyActivity `json:"weekly_activity"`
	RecentActivity    []ActivityLog    `json:"recent_activity"`
}

// WeeklyActivity is one (week, kind) bucket of completed analyses.
type WeeklyActivity struct {
	Week  time.Time `json:"week"`
	Kind  string    `json:"kind"`
	Count int       `json:"count"`
}

// UserDataExport is the full data takeout for one account.
type UserDataExport struct {
	ExportedAt     time.Time               `json:"exported_at"`
	UserProfile    User                    `json:"user_profile"`
	UserSettings   *UserSettings           `json:"user_settings"`
	MetricsHistory []GoogleMetricsSnapshot `json:"google_metrics_history"`
	Analyses       []Analysis              `json:"analyses"`
	ActivityLogs   []ActivityLog           `json:"activity_logs"`
}
