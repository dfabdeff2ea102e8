package models

import "time"

// PromiseNotificationState is the per-promise scoreboard of what has
// already been sent. Each *_NotifiedAt field is set only after its
// corresponding notification was confirmed written; the batch scanner
// checks it before attempting a send, alongside the dedupe key.
type PromiseNotificationState struct {
	PromiseID                string     `json:"promise_id" db:"promise_id"`
	InviteNotifiedAt         *time.Time `json:"invite_notified_at,omitempty" db:"invite_notified_at"`
	InviteFollowupNotifiedAt *time.Time `json:"invite_followup_notified_at,omitempty" db:"invite_followup_notified_at"`
	DueSoonNotifiedAt        *time.Time `json:"due_soon_notified_at,omitempty" db:"due_soon_notified_at"`
	OverdueNotifiedAt        *time.Time `json:"overdue_notified_at,omitempty" db:"overdue_notified_at"`
	OverdueCreatorNotifiedAt *time.Time `json:"overdue_creator_notified_at,omitempty" db:"overdue_creator_notified_at"`
	// CompletionNotifiedAt anchors the active completion cycle; the
	// follow-up stages are measured from it and it never moves within a
	// cycle.
	CompletionNotifiedAt     *time.Time `json:"completion_notified_at,omitempty" db:"completion_notified_at"`
	CompletionFollowupsCount int        `json:"completion_followups_count" db:"completion_followups_count"`
	CompletionCycleID        int        `json:"completion_cycle_id" db:"completion_cycle_id"`
	CompletionCycleStartedAt *time.Time `json:"completion_cycle_started_at,omitempty" db:"completion_cycle_started_at"`
	UpdatedAt                time.Time  `json:"updated_at" db:"updated_at"`
}

// CompletionCycleActive reports whether the completion anchor belongs to
// the currently active cycle. A stale anchor (cycle restarted after the
// anchor was set) must not drive follow-ups.
func (s PromiseNotificationState) CompletionCycleActive() bool {
	if s.CompletionNotifiedAt == nil || s.CompletionCycleID == 0 {
		return false
	}
	if s.CompletionCycleStartedAt == nil {
		return true
	}
	return !s.CompletionNotifiedAt.Before(*s.CompletionCycleStartedAt)
}
