package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pkg/errors"
)

type StateRepository interface {
	Ensure(ctx context.Context, promiseID string) error
	Get(ctx context.Context, promiseID string) (models.PromiseNotificationState, error)
	MarkInviteNotified(ctx context.Context, promiseID string, at time.Time) error
	MarkInviteFollowupNotified(ctx context.Context, promiseID string, at time.Time) error
	MarkDueSoonNotified(ctx context.Context, promiseID string, at time.Time) error
	MarkOverdueNotified(ctx context.Context, promiseID string, at time.Time) error
	MarkOverdueCreatorNotified(ctx context.Context, promiseID string, at time.Time) error
	StartCompletionCycle(ctx context.Context, promiseID string, at time.Time) error
	IncrementCompletionFollowups(ctx context.Context, promiseID string, at time.Time) error
}

type stateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) StateRepository {
	return &stateRepository{db: db}
}

// Ensure creates the all-null scoreboard row for a promise if it does not
// exist yet.
func (r *stateRepository) Ensure(ctx context.Context, promiseID string) error {
	const query = `
		INSERT INTO promise_notification_state (promise_id)
		VALUES ($1)
		ON CONFLICT (promise_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, promiseID); err != nil {
		return errors.Wrap(err, "ensure notification state")
	}
	return nil
}

func (r *stateRepository) Get(ctx context.Context, promiseID string) (models.PromiseNotificationState, error) {
	const query = `
		SELECT promise_id, invite_notified_at, invite_followup_notified_at, due_soon_notified_at,
			overdue_notified_at, overdue_creator_notified_at, completion_notified_at,
			completion_followups_count, completion_cycle_id, completion_cycle_started_at, updated_at
		FROM promise_notification_state
		WHERE promise_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, promiseID)
	return scanState(row)
}

func (r *stateRepository) MarkInviteNotified(ctx context.Context, promiseID string, at time.Time) error {
	return r.markTimestamp(ctx, promiseID, "invite_notified_at", at)
}

func (r *stateRepository) MarkInviteFollowupNotified(ctx context.Context, promiseID string, at time.Time) error {
	return r.markTimestamp(ctx, promiseID, "invite_followup_notified_at", at)
}

func (r *stateRepository) MarkDueSoonNotified(ctx context.Context, promiseID string, at time.Time) error {
	return r.markTimestamp(ctx, promiseID, "due_soon_notified_at", at)
}

func (r *stateRepository) MarkOverdueNotified(ctx context.Context, promiseID string, at time.Time) error {
	return r.markTimestamp(ctx, promiseID, "overdue_notified_at", at)
}

func (r *stateRepository) MarkOverdueCreatorNotified(ctx context.Context, promiseID string, at time.Time) error {
	return r.markTimestamp(ctx, promiseID, "overdue_creator_notified_at", at)
}

// StartCompletionCycle anchors a new completion cycle: the anchor and the
// cycle start coincide, the follow-up count resets, and the cycle id bumps
// so dedupe keys of a replaced cycle cannot collide with the new one.
func (r *stateRepository) StartCompletionCycle(ctx context.Context, promiseID string, at time.Time) error {
	const query = `
		UPDATE promise_notification_state
		SET completion_notified_at = $2,
			completion_followups_count = 0,
			completion_cycle_id = completion_cycle_id + 1,
			completion_cycle_started_at = $2,
			updated_at = $2
		WHERE promise_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, promiseID, at); err != nil {
		return errors.Wrap(err, "start completion cycle")
	}
	return nil
}

// IncrementCompletionFollowups bumps the follow-up count without moving
// the cycle anchor; the escalation stages are measured from the anchor.
func (r *stateRepository) IncrementCompletionFollowups(ctx context.Context, promiseID string, at time.Time) error {
	const query = `
		UPDATE promise_notification_state
		SET completion_followups_count = completion_followups_count + 1,
			updated_at = $2
		WHERE promise_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, promiseID, at); err != nil {
		return errors.Wrap(err, "increment completion followups")
	}
	return nil
}

// markTimestamp sets a single sent-marker column. The column name comes
// from a fixed internal call set, never from user input.
func (r *stateRepository) markTimestamp(ctx context.Context, promiseID, column string, at time.Time) error {
	query := `UPDATE promise_notification_state SET ` + column + ` = $2, updated_at = $2 WHERE promise_id = $1`
	if _, err := r.db.ExecContext(ctx, query, promiseID, at); err != nil {
		return errors.Wrapf(err, "mark %s", column)
	}
	return nil
}

func scanState(scanner interface {
	Scan(dest ...interface{}) error
}) (models.PromiseNotificationState, error) {
	var (
		state                    models.PromiseNotificationState
		inviteNotifiedAt         sql.NullTime
		inviteFollowupNotifiedAt sql.NullTime
		dueSoonNotifiedAt        sql.NullTime
		overdueNotifiedAt        sql.NullTime
		overdueCreatorNotifiedAt sql.NullTime
		completionNotifiedAt     sql.NullTime
		completionCycleStartedAt sql.NullTime
	)

	if err := scanner.Scan(
		&state.PromiseID,
		&inviteNotifiedAt,
		&inviteFollowupNotifiedAt,
		&dueSoonNotifiedAt,
		&overdueNotifiedAt,
		&overdueCreatorNotifiedAt,
		&completionNotifiedAt,
		&state.CompletionFollowupsCount,
		&state.CompletionCycleID,
		&completionCycleStartedAt,
		&state.UpdatedAt,
	); err != nil {
		return models.PromiseNotificationState{}, err
	}

	state.InviteNotifiedAt = timePtr(inviteNotifiedAt)
	state.InviteFollowupNotifiedAt = timePtr(inviteFollowupNotifiedAt)
	state.DueSoonNotifiedAt = timePtr(dueSoonNotifiedAt)
	state.OverdueNotifiedAt = timePtr(overdueNotifiedAt)
	state.OverdueCreatorNotifiedAt = timePtr(overdueCreatorNotifiedAt)
	state.CompletionNotifiedAt = timePtr(completionNotifiedAt)
	state.CompletionCycleStartedAt = timePtr(completionCycleStartedAt)

	return state, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	val := t.Time
	return &val
}
