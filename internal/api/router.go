package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	LogoutHandler   http.HandlerFunc
	MeHandler       http.HandlerFunc

	RunAnalysisHandler http.HandlerFunc
	JobStatusHandler   http.HandlerFunc

	SaveAnalysisHandler   http.HandlerFunc
	ListAnalysesHandler   http.HandlerFunc
	GetAnalysisHandler    http.HandlerFunc
	DeleteAnalysisHandler http.HandlerFunc

	GetSettingsHandler    http.HandlerFunc
	UpdateSettingsHandler http.HandlerFunc
	UpdateProfileHandler  http.HandlerFunc
	ChangePasswordHandler http.HandlerFunc

	DashboardStatsHandler http.HandlerFunc
	MetricsHistoryHandler http.HandlerFunc
	RefreshMetricsHandler http.HandlerFunc

	ExportDataHandler    http.HandlerFunc
	DeleteAccountHandler http.HandlerFunc

	ListUsersHandler      http.HandlerFunc
	UpdateUserRoleHandler http.HandlerFunc
	DeleteUserHandler     http.HandlerFunc
	AdminStatsHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/auth/register", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/logout", orNotImplemented(deps.LogoutHandler))
		r.Get("/api/v1/auth/me", orNotImplemented(deps.MeHandler))

		r.Post("/api/v1/analyses/run", orNotImplemented(deps.RunAnalysisHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.JobStatusHandler))

		r.Post("/api/v1/archives", orNotImplemented(deps.SaveAnalysisHandler))
		r.Get("/api/v1/archives", orNotImplemented(deps.ListAnalysesHandler))
		r.Get("/api/v1/archives/{analysisID}", orNotImplemented(deps.GetAnalysisHandler))
		r.Delete("/api/v1/archives/{analysisID}", orNotImplemented(deps.DeleteAnalysisHandler))

		r.Get("/api/v1/settings", orNotImplemented(deps.GetSettingsHandler))
		r.Patch("/api/v1/settings", orNotImplemented(deps.UpdateSettingsHandler))
		r.Patch("/api/v1/profile", orNotImplemented(deps.UpdateProfileHandler))
		r.Post("/api/v1/auth/password", orNotImplemented(deps.ChangePasswordHandler))

		r.Get("/api/v1/dashboard/stats", orNotImplemented(deps.DashboardStatsHandler))
		r.Get("/api/v1/metrics/google", orNotImplemented(deps.MetricsHistoryHandler))
		r.Post("/api/v1/metrics/google/refresh", orNotImplemented(deps.RefreshMetricsHandler))

		r.Get("/api/v1/export", orNotImplemented(deps.ExportDataHandler))
		r.Delete("/api/v1/account", orNotImplemented(deps.DeleteAccountHandler))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Get("/api/v1/admin/users", orNotImplemented(deps.ListUsersHandler))
			r.Patch("/api/v1/admin/users/{userID}/role", orNotImplemented(deps.UpdateUserRoleHandler))
			r.Delete("/api/v1/admin/users/{userID}", orNotImplemented(deps.DeleteUserHandler))
			r.Get("/api/v1/admin/stats", orNotImplemented(deps.AdminStatsHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
