package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"io.winapps.worklog/internal/cache"
	"io.winapps.worklog/internal/config"
	"io.winapps.worklog/internal/db"
	firebaseutil "io.winapps.worklog/internal/firebase"
	"io.winapps.worklog/internal/handlers"
	"io.winapps.worklog/internal/logging"
	"io.winapps.worklog/internal/metrics"
	"io.winapps.worklog/internal/middleware"
	"io.winapps.worklog/internal/pending"
)

func main() {
	// Load .env (if present) and the process environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Initialize Firebase
	firebaseApp, err := firebaseutil.InitFirebase(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase", "error", err)
	}
	authClient, err := firebaseutil.GetAuthClient(ctx, firebaseApp)
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase Auth", "error", err)
	}

	// Initialize PostgreSQL
	postgresDB, err := db.InitPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalw("Failed to initialize PostgreSQL", "error", err)
	}
	defer postgresDB.Close()

	// Initialize Redis
	redisClient, err := db.InitRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalw("Failed to initialize Redis", "error", err)
	}
	defer redisClient.Close()

	store := db.NewStore(postgresDB)
	journalCache := cache.NewJournalCache(redisClient, cfg.JournalCacheTTL)
	sessionCache := cache.NewSessionCache(redisClient, cfg.SessionCacheTTL)
	appMetrics := metrics.New()

	tracker, sweeper, err := newTracker(cfg, redisClient, logger)
	if err != nil {
		logger.Fatalw("Failed to initialize pending tracker", "error", err)
	}
	if sweeper != nil {
		sweeper.Start()
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RequestLoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// Initialize handlers
	authenticator := middleware.NewAuthenticator(authClient, sessionCache, logger)
	requireAuth := middleware.AuthMiddleware(authenticator)
	optionalAuth := middleware.OptionalAuthMiddleware(authenticator)
	entryHandler := handlers.NewEntryHandler(store, journalCache, tracker, appMetrics, logger)
	usersHandler := handlers.NewUsersHandler(store, store, journalCache, tracker, appMetrics, logger)

	// Define routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/me", requireAuth, usersHandler.Me)

		users := v1.Group("/users")
		users.Use(optionalAuth)
		{
			users.GET("/list-users", usersHandler.ListUsers)
			users.GET("/:username/journal", usersHandler.GetJournal)
		}

		// Protected entries routes
		entries := v1.Group("/entries")
		entries.Use(requireAuth)
		{
			entries.POST("/create-entry", entryHandler.CreateEntry)
			entries.POST("/get-entry", entryHandler.GetEntry)
			entries.POST("/update-entry", entryHandler.UpdateEntry)
			entries.POST("/delete-entry", entryHandler.DeleteEntry)
			entries.GET("/pending", entryHandler.ListPending)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infow("Server starting", "port", cfg.Port, "pending_backend", cfg.PendingBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give a 5 second timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
	}
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}

	logger.Info("Server exited")
}

// newTracker picks the pending tracker for the configured backend. The
// Redis tracker comes with a sweeper for submissions that never settled.
func newTracker(cfg *config.Config, redisClient *redis.Client, logger *zap.SugaredLogger) (pending.Tracker, *pending.Sweeper, error) {
	if cfg.PendingBackend == config.PendingBackendMemory {
		return pending.NewMemoryTracker(cfg.PendingMaxAge), nil, nil
	}

	tracker := pending.NewRedisTracker(redisClient, cfg.PendingMaxAge)
	sweeper, err := pending.NewSweeper(tracker, cfg.PendingSweepSchedule, logger)
	if err != nil {
		return nil, nil, err
	}
	return tracker, sweeper, nil
}
