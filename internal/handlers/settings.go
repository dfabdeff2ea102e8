package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pactly/pactly-api/internal/authz"
	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/notification"
	"github.com/rs/zerolog"
)

type SettingsHandler struct {
	service notification.Service
	logger  zerolog.Logger
}

func NewSettingsHandler(service notification.Service, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger.With().Str("handler", "settings").Logger(),
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	settings, err := h.service.GetSettings(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load notification settings")
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var settings models.UserNotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	settings.UserID = userID

	saved, err := h.service.UpdateSettings(r.Context(), settings)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to update notification settings")
		http.Error(w, "Invalid settings: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}
