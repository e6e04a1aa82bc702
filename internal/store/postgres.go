package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

const userColumns = `id, email, full_name, role, password_hash, google_maps_url, website_url, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash,
		&u.GoogleMapsURL, &u.WebsiteURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, full_name, role, password_hash, google_maps_url, website_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.FullName, user.Role, user.PasswordHash,
		user.GoogleMapsURL, user.WebsiteURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET
		   full_name       = COALESCE($2, full_name),
		   google_maps_url = COALESCE($3, google_maps_url),
		   website_url     = COALESCE($4, website_url),
		   updated_at      = NOW()
		 WHERE id = $1`,
		id, update.FullName, update.GoogleMapsURL, update.WebsiteURL)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- User settings ---

func (s *PostgresStore) GetUserSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var st models.UserSettings
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, notifications_enabled, weekly_digest, data_retention_consent,
		        data_retention_consent_date, marketing_consent, marketing_consent_date, updated_at
		 FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&st.UserID, &st.NotificationsEnabled, &st.WeeklyDigest, &st.DataRetentionConsent,
		&st.DataRetentionConsentDate, &st.MarketingConsent, &st.MarketingConsentDate, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) UpdateUserSettings(ctx context.Context, settings *models.UserSettings) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, notifications_enabled, weekly_digest, data_retention_consent,
		   data_retention_consent_date, marketing_consent, marketing_consent_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   notifications_enabled       = EXCLUDED.notifications_enabled,
		   weekly_digest               = EXCLUDED.weekly_digest,
		   data_retention_consent      = EXCLUDED.data_retention_consent,
		   data_retention_consent_date = EXCLUDED.data_retention_consent_date,
		   marketing_consent           = EXCLUDED.marketing_consent,
		   marketing_consent_date      = EXCLUDED.marketing_consent_date,
		   updated_at                  = NOW()`,
		settings.UserID, settings.NotificationsEnabled, settings.WeeklyDigest, settings.DataRetentionConsent,
		settings.DataRetentionConsentDate, settings.MarketingConsent, settings.MarketingConsentDate)
	if err != nil {
		return fmt.Errorf("update user settings: %w", err)
	}
	return nil
}

// --- Analysis jobs ---

const jobColumns = `id, user_id, kind, status, input, result, error_message, created_at, updated_at, completed_at`

func scanJob(row pgx.Row) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	err := row.Scan(&j.ID, &j.UserID, &j.Kind, &j.Status, &j.Input, &j.Result,
		&j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_jobs (id, user_id, kind, status, input, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.UserID, job.Kind, job.Status, job.Input, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM analysis_jobs WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// validTransitions is the forward-only job state machine. A status absent
// from the map is terminal.
var validTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	// Fetch current status
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM analysis_jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	// Validate transition
	valid := false
	for _, a := range validTransitions[currentStatus] {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE analysis_jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if models.TerminalStatus(status) {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.Result != nil {
		query += fmt.Sprintf(", result = $%d", argIdx)
		args = append(args, params.Result)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// --- Saved analyses ---

const analysisColumns = `id, user_id, kind, input, result, score, execution_time_ms, created_at`

func scanAnalysis(row pgx.Row) (*models.Analysis, error) {
	var a models.Analysis
	err := row.Scan(&a.ID, &a.UserID, &a.Kind, &a.Input, &a.Result,
		&a.Score, &a.ExecutionTimeMs, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, user_id, kind, input, result, score, execution_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		analysis.ID, analysis.UserID, analysis.Kind, analysis.Input, analysis.Result,
		analysis.Score, analysis.ExecutionTimeMs, analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Analysis, error) {
	a, err := scanAnalysis(s.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analyses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Google metrics history ---

func (s *PostgresStore) InsertMetricsSnapshot(ctx context.Context, snap *models.GoogleMetricsSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO google_metrics_history (id, user_id, google_rating, review_count, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.UserID, snap.GoogleRating, snap.ReviewCount, snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert metrics snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMetricsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.GoogleMetricsSnapshot, error) {
	if limit <= 0 {
		limit = 26
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, google_rating, review_count, recorded_at
		 FROM google_metrics_history WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list metrics history: %w", err)
	}
	defer rows.Close()

	var snaps []models.GoogleMetricsSnapshot
	for rows.Next() {
		var m models.GoogleMetricsSnapshot
		if err := rows.Scan(&m.ID, &m.UserID, &m.GoogleRating, &m.ReviewCount, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan metrics snapshot: %w", err)
		}
		snaps = append(snaps, m)
	}
	return snaps, rows.Err()
}

// --- Activity log ---

func (s *PostgresStore) InsertActivity(ctx context.Context, entry *models.ActivityLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, user_id, user_email, action, details, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, entry.UserEmail, entry.Action, entry.Details,
		entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, user_email, action, details, ip_address, user_agent, created_at
		 FROM activity_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityLog
	for rows.Next() {
		var e models.ActivityLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.Action, &e.Details,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Stats ---

func (s *PostgresStore) DashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	history, err := s.ListMetricsHistory(ctx, userID, 26)
	if err != nil {
		return nil, err
	}
	stats.MetricsHistory = history
	if len(history) > 0 {
		stats.CurrentRating = history[0].GoogleRating
		stats.CurrentReviewCount = history[0].ReviewCount
		last := history[len(history)-1]
		stats.FirstRating = last.GoogleRating
		stats.FirstReviewCount = last.ReviewCount
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analyses WHERE user_id = $1`, userID).Scan(&stats.TotalAnalyses)
	if err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT score FROM analyses
		 WHERE user_id = $1 AND kind = 'seo' AND score IS NOT NULL
		 ORDER BY created_at DESC LIMIT 1`, userID).Scan(&stats.LastSEOScore)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("last seo score: %w", err)
	}

	return stats, nil
}

func (s *PostgresStore) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&stats.TotalAnalyses)
	if err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analyses WHERE created_at >= date_trunc('month', NOW())`,
	).Scan(&stats.AnalysesThisMonth)
	if err != nil {
		return nil, fmt.Errorf("count analyses this month: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT date_trunc('week', created_at) AS week, kind, COUNT(*)
		 FROM analyses
		 WHERE created_at >= NOW() - INTERVAL '12 weeks'
		 GROUP BY week, kind ORDER BY week`)
	if err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.WeeklyActivity
		if err := rows.Scan(&w.Week, &w.Kind, &w.Count); err != nil {
			return nil, fmt.Errorf("scan weekly activity: %w", err)
		}
		stats.WeeklyActivity = append(stats.WeeklyActivity, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recent, err := s.ListRecentActivity(ctx, 20)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = recent

	return stats, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
