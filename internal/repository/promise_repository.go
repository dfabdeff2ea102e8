package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pkg/errors"
)

// Candidate pairs a promise with its notification scoreboard for one
// batch-scanner evaluation.
type Candidate struct {
	Promise models.Promise
	State   models.PromiseNotificationState
}

// PromiseRepository is the engine's read-only view of the deal store plus
// the candidate queries the batch scanner runs per category.
type PromiseRepository interface {
	GetByID(ctx context.Context, promiseID string) (models.Promise, error)
	ListInviteFollowupCandidates(ctx context.Context, now time.Time) ([]Candidate, error)
	ListDueSoonCandidates(ctx context.Context, now time.Time) ([]Candidate, error)
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]Candidate, error)
	ListCompletionFollowupCandidates(ctx context.Context, now time.Time) ([]Candidate, error)
}

type promiseRepository struct {
	db *sql.DB
}

func NewPromiseRepository(db *sql.DB) PromiseRepository {
	return &promiseRepository{db: db}
}

const promiseColumns = `p.id, p.creator_id, p.executor_id, p.status, p.due_at, p.accepted_at, p.completed_at, p.created_at`

const stateColumns = `s.invite_notified_at, s.invite_followup_notified_at, s.due_soon_notified_at,
	s.overdue_notified_at, s.overdue_creator_notified_at, s.completion_notified_at,
	COALESCE(s.completion_followups_count, 0), COALESCE(s.completion_cycle_id, 0), s.completion_cycle_started_at`

func (r *promiseRepository) GetByID(ctx context.Context, promiseID string) (models.Promise, error) {
	const query = `
		SELECT id, creator_id, executor_id, status, due_at, accepted_at, completed_at, created_at
		FROM promises
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, promiseID)

	var (
		promise     models.Promise
		dueAt       sql.NullTime
		acceptedAt  sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&promise.ID,
		&promise.CreatorID,
		&promise.ExecutorID,
		&promise.Status,
		&dueAt,
		&acceptedAt,
		&completedAt,
		&promise.CreatedAt,
	); err != nil {
		return models.Promise{}, err
	}
	promise.DueAt = timePtr(dueAt)
	promise.AcceptedAt = timePtr(acceptedAt)
	promise.CompletedAt = timePtr(completedAt)
	return promise, nil
}

// ListInviteFollowupCandidates finds open invites that were sent at least
// 24 hours ago and have neither been accepted nor followed up.
func (r *promiseRepository) ListInviteFollowupCandidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	const query = `
		SELECT ` + promiseColumns + `, ` + stateColumns + `
		FROM promises p
		JOIN promise_notification_state s ON s.promise_id = p.id
		WHERE p.status = 'pending'
		  AND p.accepted_at IS NULL
		  AND s.invite_notified_at IS NOT NULL
		  AND s.invite_notified_at <= $1
		  AND s.invite_followup_notified_at IS NULL
		ORDER BY s.invite_notified_at
	`
	return r.queryCandidates(ctx, query, now.Add(-24*time.Hour))
}

// ListDueSoonCandidates finds accepted promises due within the next 24
// hours that have not had a due-soon reminder yet.
func (r *promiseRepository) ListDueSoonCandidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	const query = `
		SELECT ` + promiseColumns + `, ` + stateColumns + `
		FROM promises p
		LEFT JOIN promise_notification_state s ON s.promise_id = p.id
		WHERE p.status = 'active'
		  AND p.due_at IS NOT NULL
		  AND p.due_at > $1
		  AND p.due_at <= $2
		  AND s.due_soon_notified_at IS NULL
		ORDER BY p.due_at
	`
	return r.queryCandidates(ctx, query, now, now.Add(24*time.Hour))
}

// ListOverdueCandidates finds accepted promises past their due date where
// either track still has something to send: the executor's first or 72h
// repeat, or the creator's one-shot.
func (r *promiseRepository) ListOverdueCandidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	const query = `
		SELECT ` + promiseColumns + `, ` + stateColumns + `
		FROM promises p
		LEFT JOIN promise_notification_state s ON s.promise_id = p.id
		WHERE p.status = 'active'
		  AND p.due_at IS NOT NULL
		  AND p.due_at <= $1
		  AND (
			s.overdue_notified_at IS NULL
			OR s.overdue_notified_at <= $2
			OR s.overdue_creator_notified_at IS NULL
		  )
		ORDER BY p.due_at
	`
	return r.queryCandidates(ctx, query, now, now.Add(-72*time.Hour))
}

// ListCompletionFollowupCandidates finds promises awaiting confirmation
// with an anchored completion cycle that has not escalated twice yet.
func (r *promiseRepository) ListCompletionFollowupCandidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	const query = `
		SELECT ` + promiseColumns + `, ` + stateColumns + `
		FROM promises p
		JOIN promise_notification_state s ON s.promise_id = p.id
		WHERE p.status = 'awaiting_confirmation'
		  AND s.completion_notified_at IS NOT NULL
		  AND s.completion_followups_count < 2
		  AND s.completion_notified_at <= $1
		ORDER BY s.completion_notified_at
	`
	return r.queryCandidates(ctx, query, now.Add(-24*time.Hour))
}

func (r *promiseRepository) queryCandidates(ctx context.Context, query string, args ...interface{}) ([]Candidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query candidates")
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan candidate")
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func scanCandidate(rows *sql.Rows) (Candidate, error) {
	var (
		c                        Candidate
		dueAt                    sql.NullTime
		acceptedAt               sql.NullTime
		completedAt              sql.NullTime
		inviteNotifiedAt         sql.NullTime
		inviteFollowupNotifiedAt sql.NullTime
		dueSoonNotifiedAt        sql.NullTime
		overdueNotifiedAt        sql.NullTime
		overdueCreatorNotifiedAt sql.NullTime
		completionNotifiedAt     sql.NullTime
		completionCycleStartedAt sql.NullTime
	)

	if err := rows.Scan(
		&c.Promise.ID,
		&c.Promise.CreatorID,
		&c.Promise.ExecutorID,
		&c.Promise.Status,
		&dueAt,
		&acceptedAt,
		&completedAt,
		&c.Promise.CreatedAt,
		&inviteNotifiedAt,
		&inviteFollowupNotifiedAt,
		&dueSoonNotifiedAt,
		&overdueNotifiedAt,
		&overdueCreatorNotifiedAt,
		&completionNotifiedAt,
		&c.State.CompletionFollowupsCount,
		&c.State.CompletionCycleID,
		&completionCycleStartedAt,
	); err != nil {
		return Candidate{}, err
	}

	c.Promise.DueAt = timePtr(dueAt)
	c.Promise.AcceptedAt = timePtr(acceptedAt)
	c.Promise.CompletedAt = timePtr(completedAt)

	c.State.PromiseID = c.Promise.ID
	c.State.InviteNotifiedAt = timePtr(inviteNotifiedAt)
	c.State.InviteFollowupNotifiedAt = timePtr(inviteFollowupNotifiedAt)
	c.State.DueSoonNotifiedAt = timePtr(dueSoonNotifiedAt)
	c.State.OverdueNotifiedAt = timePtr(overdueNotifiedAt)
	c.State.OverdueCreatorNotifiedAt = timePtr(overdueCreatorNotifiedAt)
	c.State.CompletionNotifiedAt = timePtr(completionNotifiedAt)
	c.State.CompletionCycleStartedAt = timePtr(completionCycleStartedAt)

	return c, nil
}
