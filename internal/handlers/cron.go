package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/pactly/pactly-api/internal/scanner"
	"github.com/rs/zerolog"
)

// BatchRunner is the slice of the scanner the trigger endpoint needs.
type BatchRunner interface {
	Run(ctx context.Context) scanner.Summary
}

// CronHandler exposes the externally triggered batch pass. The external
// scheduler's next tick is the retry mechanism; re-invocation is always
// safe.
type CronHandler struct {
	runner BatchRunner
	secret string
	logger zerolog.Logger
}

func NewCronHandler(runner BatchRunner, secret string, logger zerolog.Logger) *CronHandler {
	return &CronHandler{
		runner: runner,
		secret: secret,
		logger: logger.With().Str("handler", "cron").Logger(),
	}
}

func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary := h.runner.Run(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"results": summary,
	})
}

func (h *CronHandler) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.secret)) == 1
}
