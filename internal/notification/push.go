package notification

import (
	"context"
	"fmt"

	"github.com/pactly/pactly-api/internal/config"
	"github.com/pactly/pactly-api/internal/models"
	"github.com/rs/zerolog"
)

// PushSender is the fire-and-forget transport stub. Delivery outcomes
// never affect the writer's result.
type PushSender interface {
	Send(ctx context.Context, userID string, category models.NotificationCategory, ctaURL string) error
}

type MobilePushSender struct {
	enabled   bool
	projectID string
	topic     string
	logger    zerolog.Logger
}

func NewMobilePushSender(cfg config.PushConfig, logger zerolog.Logger) *MobilePushSender {
	enabled := cfg.Enabled && cfg.ProjectID != ""
	return &MobilePushSender{
		enabled:   enabled,
		projectID: cfg.ProjectID,
		topic:     cfg.Topic,
		logger:    logger.With().Str("notifier", "push").Logger(),
	}
}

func (s *MobilePushSender) Send(_ context.Context, userID string, category models.NotificationCategory, ctaURL string) error {
	if !s.enabled {
		return nil
	}
	s.logger.Info().
		Str("user_id", userID).
		Str("category", string(category)).
		Str("cta_url", ctaURL).
		Msg("push notification dispatched (mock)")
	return nil
}

func (s *MobilePushSender) String() string {
	if !s.enabled {
		return "MobilePushSender(disabled)"
	}
	return fmt.Sprintf("MobilePushSender(project=%s, topic=%s)", s.projectID, s.topic)
}
