package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/auo-api/internal/auth"
	"github.com/ksred/auo-api/internal/config"
	"github.com/ksred/auo-api/internal/database"
	"github.com/ksred/auo-api/internal/prefill"
	"github.com/ksred/auo-api/internal/refdata"
	"github.com/ksred/auo-api/pkg/middleware"
	"github.com/ksred/auo-api/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the prefill API server with graceful shutdown
// support. It wires the reference data store, the inference engine and the
// API routes.
func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.Auth.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)

	refdataService := refdata.NewService(db)
	refdataHandlers := refdata.NewGinHandlers(refdataService)

	prefillService := prefill.NewService(refdataService, refdataService)
	prefillHandlers := prefill.NewGinHandlers(prefillService, refdataService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg, db, authHandlers, prefillHandlers, refdataHandlers)

	// Create server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Prefill routes: Protected by JWT authentication
// - Reference data routes: Protected by JWT authentication
// - Internal routes: Protected by internal network authentication
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	authHandlers *auth.GinHandlers,
	prefillHandlers *prefill.GinHandlers,
	refdataHandlers *refdata.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		v1.GET("/health", healthHandler(db))

		// Prefill routes
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
		{
			protected.POST("/prefill", prefillHandlers.ComputePrefillHandler())
			protected.POST("/intent", prefillHandlers.ParseIntentHandler())
			protected.GET("/market/:symbol", refdataHandlers.GetMarketSnapshotHandler())
			protected.GET("/counterparties", refdataHandlers.ListCounterpartiesHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(cfg.Auth.JWTSecret))
		{
			internal.PUT("/market/:symbol/ttc", refdataHandlers.UpdateTimeToCloseHandler())
		}
	}
}

// healthHandler reports liveness plus the database connection state.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			response.ServiceUnavailable(c, "database unreachable")
			return
		}

		response.Success(c, gin.H{
			"status":  "ok",
			"service": "auo-api",
		})
	}
}
