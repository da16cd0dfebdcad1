package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/config"
	"github.com/wiradata/cbt-backend/internal/database"
	"github.com/wiradata/cbt-backend/internal/handler"
	"github.com/wiradata/cbt-backend/internal/logger"
	"github.com/wiradata/cbt-backend/internal/repository"
	"github.com/wiradata/cbt-backend/internal/router"
	"github.com/wiradata/cbt-backend/internal/service"
	"github.com/wiradata/cbt-backend/internal/validator"
	"github.com/wiradata/cbt-backend/internal/worker"
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
		Msg("Starting CBT Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	statsRepo := repository.NewStatisticsRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool)
	answerCache := repository.NewAnswerCache(rdb)
	presenceRepo := repository.NewPresenceRepository(rdb, cfg.PresenceTTL)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, rdb, log)
	scoringService := service.NewScoringService(questionRepo, answerRepo)
	lifecycle := service.NewSessionLifecycleService(sessionRepo, testRepo, scoringService, resultRepo, answerCache, log)
	answerService := service.NewAnswerService(sessionRepo, testRepo, answerRepo, questionRepo, answerCache, log)
	examService := service.NewExamService(lifecycle, testRepo, sessionRepo, questionRepo, answerRepo, answerCache, resultRepo, log)
	statsService := service.NewStatisticsService(statsRepo, questionRepo, cfg.PassingScore, log)
	proctorService := service.NewProctorService(lifecycle, resultRepo, log)
	monitorService := service.NewMonitorService(monitorRepo, testRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Participant: handler.NewParticipantHandler(examService, lifecycle, answerService, statsService),
		Proctor:     handler.NewProctorHandler(proctorService),
		Admin:       handler.NewAdminHandler(statsService, monitorService, authService, presenceRepo),
		WS:          handler.NewWSHandler(monitorService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	deadlineWorker := worker.NewDeadlineWorker(sessionRepo, lifecycle, cfg.SweepInterval, log)
	go deadlineWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, presenceRepo, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the deadline sweeper.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
