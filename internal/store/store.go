package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	GetUserSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	UpdateUserSettings(ctx context.Context, settings *models.UserSettings) error

	CreateJob(ctx context.Context, job *models.AnalysisJob) error
	GetJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.AnalysisJob, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error

	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Analysis, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error)
	DeleteAnalysis(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	InsertMetricsSnapshot(ctx context.Context, snap *models.GoogleMetricsSnapshot) error
	ListMetricsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.GoogleMetricsSnapshot, error)

	InsertActivity(ctx context.Context, entry *models.ActivityLog) error
	ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)

	DashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

// ProfileUpdate holds the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName      *string
	GoogleMapsURL *string
	WebsiteURL    *string
}

type jobUpdateParams struct {
	Result       any
	ErrorMessage *string
}

type JobUpdateOption func(*jobUpdateParams)

func WithResult(result any) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Result = result
	}
}

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}
