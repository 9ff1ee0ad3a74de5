package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/database"
	"github.com/taleemlabs/taleem-backend/internal/handler"
	"github.com/taleemlabs/taleem-backend/internal/llm"
	"github.com/taleemlabs/taleem-backend/internal/logger"
	"github.com/taleemlabs/taleem-backend/internal/repository"
	"github.com/taleemlabs/taleem-backend/internal/router"
	"github.com/taleemlabs/taleem-backend/internal/service"
	"github.com/taleemlabs/taleem-backend/internal/validator"
	"github.com/taleemlabs/taleem-backend/internal/worker"
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
		Msg("Starting Taleem Backend")

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
	kv := repository.NewRedisKV(rdb)
	queue := repository.NewRedisQueue(rdb)
	sessionRepo := repository.NewSessionRepository(kv, log)
	historyRepo := repository.NewHistoryRepository(kv, log)
	archiveRepo := repository.NewArchiveRepository(pool)

	// ─── Initialize Collaborator Client ────────────────────────────────
	llmClient := llm.New(cfg)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, kv)
	historyService := service.NewHistoryService(historyRepo, log)
	flowService := service.NewExamFlowService(sessionRepo, historyService, llmClient, llmClient, queue, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Exam:    handler.NewExamHandler(flowService, log),
		History: handler.NewHistoryHandler(historyService, archiveRepo, log),
		Chat:    handler.NewChatHandler(llmClient, log),
		WS:      handler.NewWSHandler(flowService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	archiveWorker := worker.NewArchiveWorker(archiveRepo, queue, log)
	go archiveWorker.Start(workerCtx)

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

	// 2. Stop countdown tickers and drain in-flight gradings.
	flowService.Shutdown(shutdownCtx)

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}
