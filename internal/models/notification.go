package models

import "time"

type NotificationCategory string

const (
	CategoryInvite             NotificationCategory = "invite"
	CategoryInviteFollowup     NotificationCategory = "invite_followup"
	CategoryDueSoon            NotificationCategory = "due_soon"
	CategoryOverdue            NotificationCategory = "overdue"
	CategoryCompletionWaiting  NotificationCategory = "completion_waiting"
	CategoryCompletionFollowup NotificationCategory = "completion_followup"
	CategoryDispute            NotificationCategory = "dispute"
	CategoryConfirmed          NotificationCategory = "confirmed"
)

type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityNormal   NotificationPriority = "normal"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

type PromiseRole string

const (
	RoleCreator  PromiseRole = "creator"
	RoleExecutor PromiseRole = "executor"
)

// CategoryPolicy captures the per-category dispatch rules in one place so
// adding a category is a one-line change instead of scattered conditionals.
type CategoryPolicy struct {
	// Critical categories bypass the daily cap, the per-promise cooldown,
	// and quiet-hours deferral.
	Critical bool
	// RequiresReminderOptIn gates the category on the user's
	// deadline_reminders_enabled setting.
	RequiresReminderOptIn bool
	Priority              NotificationPriority
}

var categoryPolicies = map[NotificationCategory]CategoryPolicy{
	CategoryInvite:             {Priority: PriorityNormal},
	CategoryInviteFollowup:     {Priority: PriorityNormal},
	CategoryDueSoon:            {RequiresReminderOptIn: true, Priority: PriorityHigh},
	CategoryOverdue:            {RequiresReminderOptIn: true, Priority: PriorityHigh},
	CategoryCompletionWaiting:  {Critical: true, Priority: PriorityCritical},
	CategoryCompletionFollowup: {Critical: true, Priority: PriorityCritical},
	CategoryDispute:            {Critical: true, Priority: PriorityCritical},
	CategoryConfirmed:          {Priority: PriorityNormal},
}

// PolicyFor returns the dispatch policy for a category. Unknown categories
// get the strictest treatment: capped, deferrable, normal priority.
func PolicyFor(category NotificationCategory) CategoryPolicy {
	if policy, ok := categoryPolicies[category]; ok {
		return policy
	}
	return CategoryPolicy{Priority: PriorityNormal}
}

// IsValidCategory reports whether the category belongs to the closed set.
func IsValidCategory(category NotificationCategory) bool {
	_, ok := categoryPolicies[category]
	return ok
}

type Notification struct {
	ID        string               `json:"id" db:"id"`
	UserID    string               `json:"user_id" db:"user_id"`
	PromiseID string               `json:"promise_id" db:"promise_id"`
	Category  NotificationCategory `json:"category" db:"category"`
	Role      *PromiseRole         `json:"role,omitempty" db:"role"`
	Title     string               `json:"title" db:"title"`
	Body      string               `json:"body" db:"body"`
	CTAURL    string               `json:"cta_url" db:"cta_url"`
	CTALabel  *string              `json:"cta_label,omitempty" db:"cta_label"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	DedupeKey string               `json:"dedupe_key" db:"dedupe_key"`
	// DeliveredAt is nil when the push attempt was suppressed by quiet
	// hours; it is set exactly once, at creation time.
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
