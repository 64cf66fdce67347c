package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/adex-dev/weatherdash-api/internal/auth"
	"github.com/adex-dev/weatherdash-api/internal/config"
	"github.com/adex-dev/weatherdash-api/internal/dashboard"
	"github.com/adex-dev/weatherdash-api/internal/database"
	"github.com/adex-dev/weatherdash-api/internal/email"
	httpServer "github.com/adex-dev/weatherdash-api/internal/http"
	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// @title           Weather Dashboard API
// @version         1.0
// @description     User registration, JWT sessions, password reset, and weather data proxying.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	ctx := context.Background()
	mongoClient, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db)

	// Initialize token service
	tokenService, err := auth.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize supporting services
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.SendTimeout,
	)
	weatherClient := weather.NewClient(
		cfg.Weather.BaseURL,
		cfg.Weather.CurrentAPIKey,
		cfg.Weather.ForecastAPIKey,
		cfg.Weather.RequestTimeout,
	)

	// Initialize auth flow
	authService := auth.NewService(
		userRepo,
		tokenService,
		hasher,
		emailService,
		weatherClient,
		logger,
		cfg.Email.FrontendURL,
		cfg.Auth.SessionTokenTTL,
		cfg.Auth.ResetTokenTTL,
	)
	authHandler := auth.NewHandler(authService, logger)
	authMiddleware := auth.NewMiddleware(tokenService)

	// Initialize dashboard
	dashboardService := dashboard.NewService(userRepo, weatherClient, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, dashboardHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
