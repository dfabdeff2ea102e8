package notification

import (
	"time"

	"github.com/pactly/pactly-api/internal/models"
)

const (
	// DailyCapMax is the number of notifications (any category) a user
	// may receive in a trailing 24h window before non-critical sends are
	// blocked.
	DailyCapMax = 3

	// PerPromiseCooldown is the minimum gap between two notifications of
	// the same category for the same promise to the same user.
	PerPromiseCooldown = 24 * time.Hour

	// OverdueRepeatInterval is the gap between repeated overdue nudges on
	// the executor track.
	OverdueRepeatInterval = 72 * time.Hour
)

// DailyCapExceeded reports whether the trailing-24h volume blocks a send.
// Critical categories are never capped. The count must be freshly queried
// at evaluation time; the window slides with now rather than resetting at
// a calendar boundary.
func DailyCapExceeded(countInLast24h int, category models.NotificationCategory) bool {
	if models.PolicyFor(category).Critical {
		return false
	}
	return countInLast24h >= DailyCapMax
}

// PerPromiseCapExceeded reports whether the most recent same-category send
// for the same promise is still inside the cooldown. lastSend is nil when
// no prior send exists.
func PerPromiseCapExceeded(lastSend *time.Time, now time.Time, category models.NotificationCategory) bool {
	if models.PolicyFor(category).Critical {
		return false
	}
	if lastSend == nil {
		return false
	}
	return now.Sub(*lastSend) < PerPromiseCooldown
}
