package notification

import (
	"fmt"
	"time"

	"github.com/pactly/pactly-api/internal/models"
)

// LifecycleEvent identifies a promise lifecycle fact the engine reacts
// to. The transitions themselves happen outside this service.
type LifecycleEvent string

const (
	EventInviteSent      LifecycleEvent = "invite_sent"
	EventAccepted        LifecycleEvent = "accepted"
	EventDeclined        LifecycleEvent = "declined"
	EventCompleted       LifecycleEvent = "completed"
	EventConfirmed       LifecycleEvent = "confirmed"
	EventDisputed        LifecycleEvent = "disputed"
	EventReminderDue     LifecycleEvent = "reminder_due"
	EventReminderOverdue LifecycleEvent = "reminder_overdue"
)

// Recipient is one resolved notification target.
type Recipient struct {
	UserID string
	Role   models.PromiseRole
}

// RecipientsFor resolves who gets notified for an event on a promise,
// excluding the acting user. Events other than the invite itself, its
// acceptance, and its decline require the promise to be accepted already;
// otherwise the result is empty so nobody is notified prematurely.
//
// Acceptance is the one event that fans out to both parties: the deal just
// became binding and each side gets its own next-steps message.
func RecipientsFor(event LifecycleEvent, promise models.Promise, actorID string) []Recipient {
	switch event {
	case EventInviteSent:
		return []Recipient{{UserID: promise.ExecutorID, Role: models.RoleExecutor}}
	case EventAccepted:
		return []Recipient{
			{UserID: promise.CreatorID, Role: models.RoleCreator},
			{UserID: promise.ExecutorID, Role: models.RoleExecutor},
		}
	case EventDeclined:
		return []Recipient{{UserID: promise.CreatorID, Role: models.RoleCreator}}
	}

	if !promise.Accepted() {
		return nil
	}

	switch event {
	case EventReminderDue, EventReminderOverdue:
		return []Recipient{{UserID: promise.ExecutorID, Role: models.RoleExecutor}}
	case EventCompleted:
		return counterpartOf(promise, actorID)
	case EventConfirmed, EventDisputed:
		return counterpartOf(promise, actorID)
	}
	return nil
}

func counterpartOf(promise models.Promise, actorID string) []Recipient {
	userID, role, ok := promise.Counterpart(actorID)
	if !ok {
		return nil
	}
	return []Recipient{{UserID: userID, Role: role}}
}

// Dedupe key builders. Keys are deterministic so a synchronous call site
// and a scanner pass evaluating the same semantic notification always
// collide on the unique index instead of double-sending.

func InviteKey(promiseID string) string {
	return fmt.Sprintf("invite:%s", promiseID)
}

// InviteFollowupKey is the scanner's 24h invite nudge to the executor.
func InviteFollowupKey(promiseID string) string {
	return fmt.Sprintf("invite_followup:%s", promiseID)
}

// AcceptedKey disambiguates by role because acceptance notifies both
// parties under the same category.
func AcceptedKey(promiseID string, role models.PromiseRole) string {
	return fmt.Sprintf("invite_followup:%s:%s", promiseID, role)
}

func DeclinedKey(promiseID string) string {
	return fmt.Sprintf("declined:%s", promiseID)
}

func DueSoonKey(promiseID string) string {
	return fmt.Sprintf("due_soon:%s", promiseID)
}

// OverdueExecutorKey yields "first" for the initial overdue nudge and a
// repeat key derived from the previous send's timestamp afterwards, so
// each 72h repeat gets a fresh key while staying deterministic for a
// given scoreboard state.
func OverdueExecutorKey(promiseID string, lastNotifiedAt *time.Time) string {
	if lastNotifiedAt == nil {
		return fmt.Sprintf("overdue:%s:first", promiseID)
	}
	return fmt.Sprintf("overdue:%s:repeat:%d", promiseID, lastNotifiedAt.Unix())
}

func OverdueCreatorKey(promiseID string) string {
	return fmt.Sprintf("overdue:%s:creator", promiseID)
}

func CompletionWaitingKey(promiseID string, cycleID int) string {
	return fmt.Sprintf("completion_waiting:%s:%d", promiseID, cycleID)
}

func CompletionFollowupKey(promiseID string, cycleID int, stage CompletionStage) string {
	return fmt.Sprintf("completion_followup:%s:%d:%s", promiseID, cycleID, stage)
}

func ConfirmedKey(promiseID string) string {
	return fmt.Sprintf("confirmed:%s", promiseID)
}

func DisputeKey(promiseID string) string {
	return fmt.Sprintf("dispute:%s", promiseID)
}
