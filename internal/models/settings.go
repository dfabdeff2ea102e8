package models

// UserNotificationSettings is the per-user delivery preference row. Quiet
// hour bounds are local wall-clock "HH:MM" strings with no timezone; the
// window may wrap midnight (start > end).
type UserNotificationSettings struct {
	UserID                   string `json:"user_id" db:"user_id"`
	Locale                   string `json:"locale" db:"locale"`
	PushEnabled              bool   `json:"push_enabled" db:"push_enabled"`
	DeadlineRemindersEnabled bool   `json:"deadline_reminders_enabled" db:"deadline_reminders_enabled"`
	QuietHoursEnabled        bool   `json:"quiet_hours_enabled" db:"quiet_hours_enabled"`
	QuietHoursStart          string `json:"quiet_hours_start" db:"quiet_hours_start"`
	QuietHoursEnd            string `json:"quiet_hours_end" db:"quiet_hours_end"`
}

// DefaultNotificationSettings applies when a user has no settings row.
func DefaultNotificationSettings(userID string) UserNotificationSettings {
	return UserNotificationSettings{
		UserID:                   userID,
		Locale:                   "en",
		PushEnabled:              true,
		DeadlineRemindersEnabled: true,
		QuietHoursEnabled:        true,
		QuietHoursStart:          "22:00",
		QuietHoursEnd:            "09:00",
	}
}
