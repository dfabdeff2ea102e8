package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pactly/pactly-api/internal/config"
	"github.com/pactly/pactly-api/internal/handlers"
	"github.com/pactly/pactly-api/internal/middleware"
	"github.com/pactly/pactly-api/internal/migration"
	"github.com/pactly/pactly-api/internal/notification"
	"github.com/pactly/pactly-api/internal/repository"
	"github.com/pactly/pactly-api/internal/routes"
	"github.com/pactly/pactly-api/internal/scanner"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	notifications notification.Service
	scanner       *scanner.Scanner
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load a local .env if present, then the configuration.
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Repositories
	notificationRepo := repository.NewNotificationRepository(db)
	stateRepo := repository.NewStateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	promiseRepo := repository.NewPromiseRepository(db)

	// Dispatch engine
	pushSender := notification.NewMobilePushSender(cfg.Push, logger)
	writer := notification.NewWriter(notificationRepo, settingsRepo, notification.NewCopyResolver(), pushSender, logger)
	notificationService := notification.NewService(writer, notificationRepo, stateRepo, settingsRepo, logger)
	batchScanner := scanner.New(promiseRepo, stateRepo, writer, logger)

	app := &application{
		config:        cfg,
		db:            db,
		logger:        logger,
		notifications: notificationService,
		scanner:       batchScanner,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	limited := middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerMinute)(router)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(limited)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	cronHandler := handlers.NewCronHandler(app.scanner, app.config.CronSecret, app.logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, app.logger)
	settingsHandler := handlers.NewSettingsHandler(app.notifications, app.logger)

	return routes.NewRouter(cronHandler, notificationHandler, settingsHandler, app.config.JWTSecret)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		app.logger.Info().Msg("HTTP server shutdown complete.")
	}
}
