package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pactly/pactly-api/internal/authz"
	"github.com/pactly/pactly-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	cron *handlers.CronHandler,
	notif *handlers.NotificationHandler,
	settings *handlers.SettingsHandler,
	jwtSecret string,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Trigger endpoint for the external scheduler; protected by its own
	// bearer secret, not by user auth.
	router.HandleFunc("/notifications/cron", cron.Trigger).Methods(http.MethodPost)

	// Authenticated user surface
	api := router.PathPrefix("/api").Subrouter()
	api.Use(authz.JWTMiddleware(jwtSecret))
	api.HandleFunc("/notifications", notif.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/read", notif.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/settings/notifications", settings.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings/notifications", settings.Update).Methods(http.MethodPut)

	return router
}
