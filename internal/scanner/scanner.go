package scanner

import (
	"context"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/notification"
	"github.com/pactly/pactly-api/internal/repository"
	"github.com/rs/zerolog"
)

// Summary is the trigger endpoint's result payload: counts of created
// notifications per category. Skips are logged, not surfaced.
type Summary struct {
	InviteFollowups     int `json:"inviteFollowups"`
	DueSoon             int `json:"dueSoon"`
	Overdue             int `json:"overdue"`
	CompletionFollowups int `json:"completionFollowups"`
}

// Writer is the slice of the notification writer the scanner needs.
type Writer interface {
	Write(ctx context.Context, req notification.WriteRequest) notification.WriteResult
}

// Scanner runs one batch pass over the four time-driven categories. A run
// is not resumable but is always safe to re-invoke: every candidate check
// is independent and double-gated by the scoreboard and the dedupe key.
type Scanner struct {
	promises repository.PromiseRepository
	state    repository.StateRepository
	writer   Writer
	logger   zerolog.Logger
	clock    func() time.Time
}

func New(promises repository.PromiseRepository, state repository.StateRepository, writer Writer, logger zerolog.Logger) *Scanner {
	return &Scanner{
		promises: promises,
		state:    state,
		writer:   writer,
		logger:   logger.With().Str("component", "notification_scanner").Logger(),
		clock:    time.Now,
	}
}

// WithClock replaces the scanner's time source.
func (s *Scanner) WithClock(clock func() time.Time) *Scanner {
	s.clock = clock
	return s
}

// Run executes one pass. A failed candidate never aborts the rest; a
// failed candidate-list query yields zero for that category only.
func (s *Scanner) Run(ctx context.Context) Summary {
	now := s.clock()
	summary := Summary{
		InviteFollowups:     s.scanInviteFollowups(ctx, now),
		DueSoon:             s.scanDueSoon(ctx, now),
		Overdue:             s.scanOverdue(ctx, now),
		CompletionFollowups: s.scanCompletionFollowups(ctx, now),
	}
	s.logger.Info().
		Int("invite_followups", summary.InviteFollowups).
		Int("due_soon", summary.DueSoon).
		Int("overdue", summary.Overdue).
		Int("completion_followups", summary.CompletionFollowups).
		Msg("batch scan complete")
	return summary
}

func (s *Scanner) scanInviteFollowups(ctx context.Context, now time.Time) int {
	candidates, err := s.promises.ListInviteFollowupCandidates(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list invite follow-up candidates")
		return 0
	}

	created := 0
	for _, c := range candidates {
		state := c.State
		if state.InviteNotifiedAt == nil || state.InviteFollowupNotifiedAt != nil {
			continue
		}
		if c.Promise.Accepted() || now.Sub(*state.InviteNotifiedAt) < 24*time.Hour {
			continue
		}

		role := models.RoleExecutor
		result := s.writer.Write(ctx, notification.WriteRequest{
			UserID:    c.Promise.ExecutorID,
			PromiseID: c.Promise.ID,
			Category:  models.CategoryInviteFollowup,
			DedupeKey: notification.InviteFollowupKey(c.Promise.ID),
			CTAURL:    promiseURL(c.Promise.ID),
			Role:      &role,
		})
		if s.confirm(ctx, result, c.Promise.ID, s.state.MarkInviteFollowupNotified, now) {
			created++
		}
	}
	return created
}

func (s *Scanner) scanDueSoon(ctx context.Context, now time.Time) int {
	candidates, err := s.promises.ListDueSoonCandidates(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list due-soon candidates")
		return 0
	}

	created := 0
	for _, c := range candidates {
		if c.State.DueSoonNotifiedAt != nil || c.Promise.DueAt == nil {
			continue
		}
		until := c.Promise.DueAt.Sub(now)
		if until <= 0 || until > 24*time.Hour {
			continue
		}

		for _, recipient := range notification.RecipientsFor(notification.EventReminderDue, c.Promise, "") {
			role := recipient.Role
			result := s.writer.Write(ctx, notification.WriteRequest{
				UserID:    recipient.UserID,
				PromiseID: c.Promise.ID,
				Category:  models.CategoryDueSoon,
				DedupeKey: notification.DueSoonKey(c.Promise.ID),
				CTAURL:    promiseURL(c.Promise.ID),
				Role:      &role,
				Delta:     until,
			})
			if s.confirm(ctx, result, c.Promise.ID, s.state.MarkDueSoonNotified, now) {
				created++
			}
		}
	}
	return created
}

// scanOverdue runs two independent tracks per candidate: the executor gets
// the first nudge unconditionally and a repeat every 72h; the creator gets
// exactly one heads-up ever.
func (s *Scanner) scanOverdue(ctx context.Context, now time.Time) int {
	candidates, err := s.promises.ListOverdueCandidates(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list overdue candidates")
		return 0
	}

	created := 0
	for _, c := range candidates {
		if c.Promise.DueAt == nil || c.Promise.DueAt.After(now) {
			continue
		}
		overdueBy := now.Sub(*c.Promise.DueAt)

		executorDue := c.State.OverdueNotifiedAt == nil ||
			now.Sub(*c.State.OverdueNotifiedAt) >= notification.OverdueRepeatInterval
		if executorDue {
			for _, recipient := range notification.RecipientsFor(notification.EventReminderOverdue, c.Promise, "") {
				role := recipient.Role
				result := s.writer.Write(ctx, notification.WriteRequest{
					UserID:    recipient.UserID,
					PromiseID: c.Promise.ID,
					Category:  models.CategoryOverdue,
					DedupeKey: notification.OverdueExecutorKey(c.Promise.ID, c.State.OverdueNotifiedAt),
					CTAURL:    promiseURL(c.Promise.ID),
					Role:      &role,
					Delta:     overdueBy,
				})
				if s.confirm(ctx, result, c.Promise.ID, s.state.MarkOverdueNotified, now) {
					created++
				}
			}
		}

		if c.State.OverdueCreatorNotifiedAt == nil && c.Promise.Accepted() {
			role := models.RoleCreator
			result := s.writer.Write(ctx, notification.WriteRequest{
				UserID:    c.Promise.CreatorID,
				PromiseID: c.Promise.ID,
				Category:  models.CategoryOverdue,
				DedupeKey: notification.OverdueCreatorKey(c.Promise.ID),
				CTAURL:    promiseURL(c.Promise.ID),
				Role:      &role,
				Delta:     overdueBy,
			})
			if s.confirm(ctx, result, c.Promise.ID, s.state.MarkOverdueCreatorNotified, now) {
				created++
			}
		}
	}
	return created
}

func (s *Scanner) scanCompletionFollowups(ctx context.Context, now time.Time) int {
	candidates, err := s.promises.ListCompletionFollowupCandidates(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list completion follow-up candidates")
		return 0
	}

	created := 0
	for _, c := range candidates {
		// A stale anchor from a replaced cycle must not drive follow-ups.
		if !c.State.CompletionCycleActive() {
			continue
		}
		stage := notification.NextCompletionStage(c.State.CompletionNotifiedAt, c.State.CompletionFollowupsCount, now)
		if stage == notification.StageNone {
			continue
		}

		role := models.RoleCreator
		result := s.writer.Write(ctx, notification.WriteRequest{
			UserID:    c.Promise.CreatorID,
			PromiseID: c.Promise.ID,
			Category:  models.CategoryCompletionFollowup,
			DedupeKey: notification.CompletionFollowupKey(c.Promise.ID, c.State.CompletionCycleID, stage),
			CTAURL:    promiseURL(c.Promise.ID),
			Role:      &role,
			Stage:     stage,
		})
		if s.confirm(ctx, result, c.Promise.ID, s.state.IncrementCompletionFollowups, now) {
			created++
		}
	}
	return created
}

// confirm updates the scoreboard after a successful write. That update,
// not the notification row, is what keeps the next scan from re-trying
// the same stage; if it fails the dedupe key still prevents a resend.
func (s *Scanner) confirm(ctx context.Context, result notification.WriteResult, promiseID string, mark func(context.Context, string, time.Time) error, now time.Time) bool {
	if !result.Created {
		if result.SkipReason != notification.SkipNone {
			s.logger.Debug().
				Str("promise_id", promiseID).
				Str("skip_reason", string(result.SkipReason)).
				Msg("candidate skipped")
		}
		return false
	}
	if err := mark(ctx, promiseID, now); err != nil {
		s.logger.Error().Err(err).Str("promise_id", promiseID).Msg("failed to update notification state")
	}
	return true
}

func promiseURL(promiseID string) string {
	return "/promises/" + promiseID
}
