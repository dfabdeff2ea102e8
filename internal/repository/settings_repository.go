package repository

import (
	"context"
	"database/sql"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pkg/errors"
)

type SettingsRepository interface {
	// GetByUserID returns sql.ErrNoRows when the user has no settings
	// row; callers substitute the documented defaults.
	GetByUserID(ctx context.Context, userID string) (models.UserNotificationSettings, error)
	Upsert(ctx context.Context, settings models.UserNotificationSettings) (models.UserNotificationSettings, error)
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID string) (models.UserNotificationSettings, error) {
	const query = `
		SELECT user_id, locale, push_enabled, deadline_reminders_enabled,
			quiet_hours_enabled, quiet_hours_start, quiet_hours_end
		FROM user_notification_settings
		WHERE user_id = $1
	`
	var settings models.UserNotificationSettings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Locale,
		&settings.PushEnabled,
		&settings.DeadlineRemindersEnabled,
		&settings.QuietHoursEnabled,
		&settings.QuietHoursStart,
		&settings.QuietHoursEnd,
	)
	if err != nil {
		return models.UserNotificationSettings{}, err
	}
	return settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings models.UserNotificationSettings) (models.UserNotificationSettings, error) {
	const query = `
		INSERT INTO user_notification_settings
			(user_id, locale, push_enabled, deadline_reminders_enabled, quiet_hours_enabled, quiet_hours_start, quiet_hours_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			locale = EXCLUDED.locale,
			push_enabled = EXCLUDED.push_enabled,
			deadline_reminders_enabled = EXCLUDED.deadline_reminders_enabled,
			quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = NOW()
		RETURNING user_id, locale, push_enabled, deadline_reminders_enabled, quiet_hours_enabled, quiet_hours_start, quiet_hours_end
	`
	var saved models.UserNotificationSettings
	err := r.db.QueryRowContext(ctx, query,
		settings.UserID,
		settings.Locale,
		settings.PushEnabled,
		settings.DeadlineRemindersEnabled,
		settings.QuietHoursEnabled,
		settings.QuietHoursStart,
		settings.QuietHoursEnd,
	).Scan(
		&saved.UserID,
		&saved.Locale,
		&saved.PushEnabled,
		&saved.DeadlineRemindersEnabled,
		&saved.QuietHoursEnabled,
		&saved.QuietHoursStart,
		&saved.QuietHoursEnd,
	)
	if err != nil {
		return models.UserNotificationSettings{}, errors.Wrap(err, "upsert notification settings")
	}
	return saved, nil
}
