// Package main is the entrypoint for the Shorebreak API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shorebreak-ai/shorebreak/internal/api"
	"github.com/shorebreak-ai/shorebreak/internal/api/handler"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/internal/cache"
	"github.com/shorebreak-ai/shorebreak/internal/config"
	"github.com/shorebreak-ai/shorebreak/internal/metrics"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/internal/workflow"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast when invalid
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and core services
	pgStore := store.NewPostgresStore(pool)

	sessions := auth.NewService(pgStore, redisCache, cfg.Auth.SessionTTL, cfg.Auth.BcryptCost)

	trigger := workflow.NewWebhookTrigger(cfg.Workflow)
	poller := workflow.NewPoller(pgStore, cfg.Workflow.PollInterval, cfg.Workflow.MaxPollDuration)
	orchestrator := workflow.NewOrchestrator(pgStore, redisCache, trigger, poller)

	collector := metrics.NewCollector(pgStore, metrics.NewHTTPFetcher(cfg.Metrics.FetchTimeout))
	go collector.RunPeriodic(ctx, cfg.Metrics.CollectInterval)

	// 6. Build router with dependencies
	authMW := mw.NewAuth(sessions)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		Auth:      authMW,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		RegisterHandler: handler.NewRegisterHandler(sessions, pgStore),
		LoginHandler:    handler.NewLoginHandler(sessions, pgStore),
		LogoutHandler:   handler.NewLogoutHandler(sessions),
		MeHandler:       handler.NewMeHandler(pgStore),

		RunAnalysisHandler: handler.NewRunAnalysisHandler(orchestrator, pgStore),
		JobStatusHandler:   handler.NewJobStatusHandler(orchestrator),

		SaveAnalysisHandler:   handler.NewSaveAnalysisHandler(pgStore),
		ListAnalysesHandler:   handler.NewListAnalysesHandler(pgStore),
		GetAnalysisHandler:    handler.NewGetAnalysisHandler(pgStore),
		DeleteAnalysisHandler: handler.NewDeleteAnalysisHandler(pgStore),

		GetSettingsHandler:    handler.NewGetSettingsHandler(pgStore),
		UpdateSettingsHandler: handler.NewUpdateSettingsHandler(pgStore),
		UpdateProfileHandler:  handler.NewUpdateProfileHandler(pgStore),
		ChangePasswordHandler: handler.NewChangePasswordHandler(sessions),

		DashboardStatsHandler: handler.NewDashboardStatsHandler(pgStore),
		MetricsHistoryHandler: handler.NewMetricsHistoryHandler(pgStore),
		RefreshMetricsHandler: handler.NewRefreshMetricsHandler(collector),

		ExportDataHandler:    handler.NewExportDataHandler(pgStore),
		DeleteAccountHandler: handler.NewDeleteAccountHandler(pgStore, sessions),

		ListUsersHandler:      handler.NewListUsersHandler(pgStore),
		UpdateUserRoleHandler: handler.NewUpdateUserRoleHandler(pgStore),
		DeleteUserHandler:     handler.NewDeleteUserHandler(pgStore),
		AdminStatsHandler:     handler.NewAdminStatsHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
