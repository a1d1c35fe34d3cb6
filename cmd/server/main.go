package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/anticheat"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/database"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/exam"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/handler"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/logger"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/repository"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/router"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/service"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/validator"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting exam engine")

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
	questionRepo := repository.NewQuestionRepository(pool)
	questionCache := repository.NewQuestionCache(questionRepo, log)
	historyRepo := repository.NewAttemptHistoryRepository(pool)

	// ─── Prewarm Question Bank ─────────────────────────────────────────
	// The engine reads questions while holding session locks, so the full
	// bank must be in memory BEFORE accepting traffic.
	if err := questionCache.Prewarm(ctx); err != nil {
		log.Fatal().Err(err).Msg("Question bank prewarm failed")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	historyRecorder := service.NewHistoryRecorder(rdb, log)
	rankingService := service.NewRankingService(rdb, log)
	monitorPublisher := service.NewMonitorPublisher(rdb, log)

	// ─── Initialize Exam Engine ────────────────────────────────────────
	store := session.NewStore(cfg.SessionTTL, cfg.SessionCapacity, log)
	store.StartJanitor(ctx)
	guard := session.NewGuard(cfg.LockSlots)

	heartbeatMonitor := anticheat.NewMonitor(
		cfg.HeartbeatTokenSecret,
		cfg.MinHeartbeatInterval,
		cfg.MaxHeartbeatInterval,
		cfg.HeartbeatTolerance,
		log,
	)
	limits := anticheat.Limits{
		MaxTabSwitch:       cfg.MaxTabSwitchViolations,
		MaxTextCopy:        cfg.MaxTextCopyViolations,
		MaxTampering:       cfg.MaxTamperingViolations,
		MaxHeartbeatMissed: cfg.MaxHeartbeatMissed,
	}

	engine := exam.NewEngine(
		store,
		guard,
		questionCache,
		exam.DefaultPolicies(cfg),
		heartbeatMonitor,
		limits,
		historyRecorder,
		rankingService,
		monitorPublisher,
		cfg.InitialDifficulty,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:      handler.NewExamHandler(engine),
		AntiCheat: handler.NewAntiCheatHandler(engine),
		Ranking:   handler.NewRankingHandler(rankingService),
		Monitor:   handler.NewMonitorHandler(monitorPublisher, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	historyWorker := worker.NewHistoryWorker(historyRepo, rdb, log)
	go historyWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
