package notification

import "time"

// CompletionStage names one escalation step of a completion cycle.
type CompletionStage string

const (
	StageNone CompletionStage = ""
	Stage24h  CompletionStage = "24h"
	Stage72h  CompletionStage = "72h"
)

// NextCompletionStage resolves the next follow-up stage for a completion
// cycle, or StageNone when nothing is due. The cycle is a three-state
// machine keyed on the follow-up count: fresh (0) escalates 24h after the
// anchor, escalated-once (1) escalates 72h after the anchor, and two
// follow-ups is terminal. Both stages measure from the same anchor; the
// anchor never moves within a cycle.
func NextCompletionStage(completionNotifiedAt *time.Time, followupsCount int, now time.Time) CompletionStage {
	if completionNotifiedAt == nil {
		return StageNone
	}
	elapsed := now.Sub(*completionNotifiedAt)
	switch {
	case followupsCount == 0 && elapsed >= 24*time.Hour:
		return Stage24h
	case followupsCount == 1 && elapsed >= 72*time.Hour:
		return Stage72h
	default:
		return StageNone
	}
}
