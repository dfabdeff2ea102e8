package models

import "time"

type PromiseStatus string

const (
	PromiseStatusPending              PromiseStatus = "pending"
	PromiseStatusActive               PromiseStatus = "active"
	PromiseStatusAwaitingConfirmation PromiseStatus = "awaiting_confirmation"
	PromiseStatusCompleted            PromiseStatus = "completed"
	PromiseStatusDisputed             PromiseStatus = "disputed"
	PromiseStatusDeclined             PromiseStatus = "declined"
)

// Promise is the engine's read-only view of a deal. The lifecycle
// transitions and the executor-resolution precedence rules live outside
// this service; the engine only consumes the resulting facts.
type Promise struct {
	ID          string        `json:"id" db:"id"`
	CreatorID   string        `json:"creator_id" db:"creator_id"`
	ExecutorID  string        `json:"executor_id" db:"executor_id"`
	Status      PromiseStatus `json:"status" db:"status"`
	DueAt       *time.Time    `json:"due_at,omitempty" db:"due_at"`
	AcceptedAt  *time.Time    `json:"accepted_at,omitempty" db:"accepted_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Accepted reports whether the counterparty has accepted the invite.
func (p Promise) Accepted() bool {
	return p.AcceptedAt != nil
}

// Counterpart returns the other participant's id and role relative to
// userID, or false when userID is not a participant.
func (p Promise) Counterpart(userID string) (string, PromiseRole, bool) {
	switch userID {
	case p.CreatorID:
		return p.ExecutorID, RoleExecutor, true
	case p.ExecutorID:
		return p.CreatorID, RoleCreator, true
	}
	return "", "", false
}

// RoleOf returns the role userID plays on this promise.
func (p Promise) RoleOf(userID string) (PromiseRole, bool) {
	switch userID {
	case p.CreatorID:
		return RoleCreator, true
	case p.ExecutorID:
		return RoleExecutor, true
	}
	return "", false
}
