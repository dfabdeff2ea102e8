package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SkipReason names why the writer declined to create a notification. A
// skip is an expected, loggable outcome, not a failure.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipDedupe            SkipReason = "dedupe"
	SkipRemindersDisabled SkipReason = "deadline_reminders_disabled"
	SkipPerDealCap        SkipReason = "per_deal_cap"
	SkipDailyCap          SkipReason = "daily_cap"
	SkipDBError           SkipReason = "db_error"
)

// WriteRequest is one candidate notification for one user.
type WriteRequest struct {
	UserID    string
	PromiseID string
	Category  models.NotificationCategory
	DedupeKey string
	CTAURL    string
	// Priority overrides the category default when set.
	Priority models.NotificationPriority
	Role     *models.PromiseRole
	Stage    CompletionStage
	// Delta carries the time distance the copy mentions (until due,
	// since due, ...).
	Delta time.Duration
}

type WriteResult struct {
	Created      bool
	SkipReason   SkipReason
	Notification *models.Notification
}

// Writer applies the full gate pipeline for a single notification:
// settings, dedupe, reminder opt-in, per-promise cooldown, daily cap,
// quiet hours, insert, push. Every gate short-circuits into a named skip.
type Writer struct {
	notifications repository.NotificationRepository
	settings      repository.SettingsRepository
	copy          CopyResolver
	push          PushSender
	logger        zerolog.Logger
	clock         func() time.Time
}

func NewWriter(
	notifications repository.NotificationRepository,
	settings repository.SettingsRepository,
	copyResolver CopyResolver,
	push PushSender,
	logger zerolog.Logger,
) *Writer {
	return &Writer{
		notifications: notifications,
		settings:      settings,
		copy:          copyResolver,
		push:          push,
		logger:        logger.With().Str("component", "notification_writer").Logger(),
		clock:         time.Now,
	}
}

// WithClock replaces the writer's time source.
func (w *Writer) WithClock(clock func() time.Time) *Writer {
	w.clock = clock
	return w
}

func (w *Writer) Write(ctx context.Context, req WriteRequest) WriteResult {
	now := w.clock()
	policy := models.PolicyFor(req.Category)
	log := w.logger.With().
		Str("user_id", req.UserID).
		Str("promise_id", req.PromiseID).
		Str("category", string(req.Category)).
		Str("dedupe_key", req.DedupeKey).
		Logger()

	settings, err := w.loadSettings(ctx, req.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load notification settings")
		return WriteResult{SkipReason: SkipDBError}
	}

	// Pre-check only; the unique index on (user_id, dedupe_key) is the
	// real guarantee and the insert below handles the conflict.
	exists, err := w.notifications.ExistsByDedupeKey(ctx, req.UserID, req.DedupeKey)
	if err != nil {
		log.Error().Err(err).Msg("dedupe lookup failed")
		return WriteResult{SkipReason: SkipDBError}
	}
	if exists {
		return WriteResult{SkipReason: SkipDedupe}
	}

	if policy.RequiresReminderOptIn && !settings.DeadlineRemindersEnabled {
		return WriteResult{SkipReason: SkipRemindersDisabled}
	}

	if !policy.Critical {
		lastSend, err := w.notifications.LastCategorySendAt(ctx, req.UserID, req.PromiseID, req.Category)
		if err != nil {
			log.Error().Err(err).Msg("cooldown lookup failed")
			return WriteResult{SkipReason: SkipDBError}
		}
		if PerPromiseCapExceeded(lastSend, now, req.Category) {
			return WriteResult{SkipReason: SkipPerDealCap}
		}

		count, err := w.notifications.CountCreatedSince(ctx, req.UserID, now.Add(-24*time.Hour))
		if err != nil {
			log.Error().Err(err).Msg("daily cap lookup failed")
			return WriteResult{SkipReason: SkipDBError}
		}
		if DailyCapExceeded(count, req.Category) {
			return WriteResult{SkipReason: SkipDailyCap}
		}
	}

	inQuiet := InQuietHours(now, settings.QuietHoursEnabled, settings.QuietHoursStart, settings.QuietHoursEnd)
	attemptDelivery := settings.PushEnabled && (policy.Critical || !inQuiet)

	var deliveredAt *time.Time
	if attemptDelivery {
		deliveredAt = &now
	}

	priority := req.Priority
	if priority == "" {
		priority = policy.Priority
	}
	rendered := w.copy.Resolve(settings.Locale, req.Category, req.Role, req.Stage, req.Delta)

	notif, err := w.notifications.Create(ctx, repository.CreateNotificationParams{
		UserID:      req.UserID,
		PromiseID:   req.PromiseID,
		Category:    req.Category,
		Role:        req.Role,
		Title:       rendered.Title,
		Body:        rendered.Body,
		CTAURL:      req.CTAURL,
		CTALabel:    ctaLabelPtr(rendered.CTALabel),
		Priority:    priority,
		DedupeKey:   req.DedupeKey,
		DeliveredAt: deliveredAt,
		CreatedAt:   now,
	})
	if err != nil {
		// A concurrent writer won the race between our pre-check and
		// the insert; same outcome as the pre-check firing.
		if errors.Is(err, repository.ErrDuplicateNotification) {
			return WriteResult{SkipReason: SkipDedupe}
		}
		log.Error().Err(err).Msg("failed to persist notification")
		return WriteResult{SkipReason: SkipDBError}
	}

	if attemptDelivery {
		if err := w.push.Send(ctx, req.UserID, req.Category, req.CTAURL); err != nil {
			log.Warn().Err(err).Str("notification_id", notif.ID).Msg("push delivery failed")
		}
	}

	log.Info().
		Str("notification_id", notif.ID).
		Bool("delivered", attemptDelivery).
		Msg("notification created")
	return WriteResult{Created: true, Notification: &notif}
}

func (w *Writer) loadSettings(ctx context.Context, userID string) (models.UserNotificationSettings, error) {
	settings, err := w.settings.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultNotificationSettings(userID), nil
		}
		return models.UserNotificationSettings{}, err
	}
	return settings, nil
}

func ctaLabelPtr(label string) *string {
	if label == "" {
		return nil
	}
	return &label
}
