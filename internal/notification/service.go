package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Service is the synchronous call-site facade. The deal lifecycle
// handlers call these after committing their own state change; every
// method resolves recipients, writes through the gate pipeline, and
// updates the per-promise scoreboard on success.
type Service interface {
	NotifyInviteSent(ctx context.Context, promise models.Promise) []WriteResult
	NotifyInviteAccepted(ctx context.Context, promise models.Promise, actorID string) []WriteResult
	NotifyInviteDeclined(ctx context.Context, promise models.Promise, actorID string) []WriteResult
	NotifyCompleted(ctx context.Context, promise models.Promise, actorID string) []WriteResult
	NotifyConfirmed(ctx context.Context, promise models.Promise, actorID string) []WriteResult
	NotifyDisputed(ctx context.Context, promise models.Promise, actorID string) []WriteResult

	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error)
	GetSettings(ctx context.Context, userID string) (models.UserNotificationSettings, error)
	UpdateSettings(ctx context.Context, settings models.UserNotificationSettings) (models.UserNotificationSettings, error)
}

type service struct {
	writer        *Writer
	notifications repository.NotificationRepository
	state         repository.StateRepository
	settings      repository.SettingsRepository
	logger        zerolog.Logger
}

func NewService(
	writer *Writer,
	notifications repository.NotificationRepository,
	state repository.StateRepository,
	settings repository.SettingsRepository,
	logger zerolog.Logger,
) Service {
	return &service{
		writer:        writer,
		notifications: notifications,
		state:         state,
		settings:      settings,
		logger:        logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *service) NotifyInviteSent(ctx context.Context, promise models.Promise) []WriteResult {
	if err := s.state.Ensure(ctx, promise.ID); err != nil {
		s.logger.Error().Err(err).Str("promise_id", promise.ID).Msg("failed to ensure notification state")
	}

	var results []WriteResult
	for _, recipient := range RecipientsFor(EventInviteSent, promise, promise.CreatorID) {
		role := recipient.Role
		result := s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryInvite,
			DedupeKey: InviteKey(promise.ID),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		})
		if result.Created {
			if err := s.state.MarkInviteNotified(ctx, promise.ID, result.Notification.CreatedAt); err != nil {
				s.logger.Error().Err(err).Str("promise_id", promise.ID).Msg("failed to mark invite notified")
			}
		}
		results = append(results, result)
	}
	return results
}

func (s *service) NotifyInviteAccepted(ctx context.Context, promise models.Promise, actorID string) []WriteResult {
	var results []WriteResult
	for _, recipient := range RecipientsFor(EventAccepted, promise, actorID) {
		role := recipient.Role
		results = append(results, s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryInviteFollowup,
			DedupeKey: AcceptedKey(promise.ID, recipient.Role),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		}))
	}
	return results
}

func (s *service) NotifyInviteDeclined(ctx context.Context, promise models.Promise, actorID string) []WriteResult {
	var results []WriteResult
	for _, recipient := range RecipientsFor(EventDeclined, promise, actorID) {
		role := recipient.Role
		results = append(results, s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryInviteFollowup,
			DedupeKey: DeclinedKey(promise.ID),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		}))
	}
	return results
}

// NotifyCompleted prompts the counterpart to confirm and anchors a new
// completion cycle. The cycle id in the dedupe key is the one the cycle
// will get once the write is confirmed, so a replaced cycle can never
// collide with the new one.
func (s *service) NotifyCompleted(ctx context.Context, promise models.Promise, actorID string) []WriteResult {
	if err := s.state.Ensure(ctx, promise.ID); err != nil {
		s.logger.Error().Err(err).Str("promise_id", promise.ID).Msg("failed to ensure notification state")
	}
	state, err := s.state.Get(ctx, promise.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("promise_id", promise.ID).Msg("failed to load notification state")
		return []WriteResult{{SkipReason: SkipDBError}}
	}
	nextCycle := state.CompletionCycleID + 1

	var results []WriteResult
	for _, recipient := range RecipientsFor(EventCompleted, promise, actorID) {
		role := recipient.Role
		result := s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryCompletionWaiting,
			DedupeKey: CompletionWaitingKey(promise.ID, nextCycle),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		})
		if result.Created {
			if err := s.state.StartCompletionCycle(ctx, promise.ID, result.Notification.CreatedAt); err != nil {
				s.logger.Error().Err(err).Str("promise_id", promise.ID).Msg("failed to start completion cycle")
			}
		}
		results = append(results, result)
	}
	return results
}

func (s *service) NotifyConfirmed(ctx context.Context, promise models.Promise, actorID string) []WriteResult {
	var results []WriteResult
	for _, recipient := range RecipientsFor(EventConfirmed, promise, actorID) {
		role := recipient.Role
		results = append(results, s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryConfirmed,
			DedupeKey: ConfirmedKey(promise.ID),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		}))
	}
	return results
}

func (s *service) NotifyDisputed(ctx context.Context, promise models.Promise, actorID string) []WriteResult {
	var results []WriteResult
	for _, recipient := range RecipientsFor(EventDisputed, promise, actorID) {
		role := recipient.Role
		results = append(results, s.writer.Write(ctx, WriteRequest{
			UserID:    recipient.UserID,
			PromiseID: promise.ID,
			Category:  models.CategoryDispute,
			DedupeKey: DisputeKey(promise.ID),
			CTAURL:    promiseURL(promise.ID),
			Role:      &role,
		}))
	}
	return results
}

func (s *service) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return s.notifications.ListRecent(ctx, userID, limit)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error) {
	return s.notifications.MarkRead(ctx, userID, notificationID)
}

func (s *service) GetSettings(ctx context.Context, userID string) (models.UserNotificationSettings, error) {
	settings, err := s.settings.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultNotificationSettings(userID), nil
		}
		return models.UserNotificationSettings{}, err
	}
	return settings, nil
}

func (s *service) UpdateSettings(ctx context.Context, settings models.UserNotificationSettings) (models.UserNotificationSettings, error) {
	if settings.Locale == "" {
		settings.Locale = "en"
	}
	if _, err := parseClock(settings.QuietHoursStart); err != nil {
		return models.UserNotificationSettings{}, err
	}
	if _, err := parseClock(settings.QuietHoursEnd); err != nil {
		return models.UserNotificationSettings{}, err
	}
	return s.settings.Upsert(ctx, settings)
}

func promiseURL(promiseID string) string {
	return fmt.Sprintf("/promises/%s", promiseID)
}
