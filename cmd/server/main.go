package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/database"
	"github.com/stemsi/siakad-backend/internal/handler"
	"github.com/stemsi/siakad-backend/internal/logger"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/router"
	"github.com/stemsi/siakad-backend/internal/service"
	"github.com/stemsi/siakad-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("strict_status_edits", cfg.StrictStatusEdits).
		Msg("Starting SIAKAD Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations ──────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	repo := repository.New(pool, repository.RetryPolicy{
		Attempts: cfg.DBRetryAttempts,
		Backoff:  cfg.DBRetryBackoff,
	})

	// ─── Initialize Services ──────────────────────────────────────────
	policy := service.StatusPolicyOverride
	if cfg.StrictStatusEdits {
		policy = service.StatusPolicyStrict
	}

	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(repo, authService, log)
	studentService := service.NewStudentService(repo, log)
	courseService := service.NewCourseService(repo, log)
	enrollmentService := service.NewEnrollmentService(repo, policy, log)
	linkageService := service.NewLinkageService(repo, authService, log)
	portalService := service.NewPortalService(repo, linkageService, studentService, courseService, enrollmentService, log)
	dashboardService := service.NewDashboardService(repo, log)
	exportService := service.NewExportService(enrollmentService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(userService),
		User:          handler.NewUserHandler(userService, linkageService),
		Student:       handler.NewStudentHandler(studentService, enrollmentService),
		Course:        handler.NewCourseHandler(courseService),
		Enrollment:    handler.NewEnrollmentHandler(enrollmentService, exportService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		StudentPortal: handler.NewStudentPortalHandler(portalService),
		System: handler.NewSystemHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis":    handler.RedisPinger{RDB: rdb},
		}, pool, log),
	}

	// Login attempts per IP per minute, shared across instances through Redis.
	loginLimiter := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.LoginRateLimit, time.Minute, log)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, loginLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
