package notification

import (
	"fmt"
	"time"

	"github.com/pactly/pactly-api/internal/models"
)

// Copy is the rendered display text for one notification.
type Copy struct {
	Title    string
	Body     string
	CTALabel string
}

// CopyResolver renders display copy for a category, role, stage, and
// locale. Localization content is owned outside the engine; this is the
// collaborator contract it is consumed through.
type CopyResolver interface {
	Resolve(locale string, category models.NotificationCategory, role *models.PromiseRole, stage CompletionStage, delta time.Duration) Copy
}

// catalogResolver is the built-in English catalog. Unknown locales fall
// back to English.
type catalogResolver struct{}

func NewCopyResolver() CopyResolver {
	return catalogResolver{}
}

func (catalogResolver) Resolve(locale string, category models.NotificationCategory, role *models.PromiseRole, stage CompletionStage, delta time.Duration) Copy {
	switch category {
	case models.CategoryInvite:
		return Copy{
			Title:    "You have a new promise invite",
			Body:     "Someone wants to make a deal with you. Review the terms and accept or decline.",
			CTALabel: "View invite",
		}
	case models.CategoryInviteFollowup:
		if role != nil && *role == models.RoleCreator {
			return Copy{
				Title:    "Your invite was answered",
				Body:     "The other side responded to your promise invite.",
				CTALabel: "Open promise",
			}
		}
		return Copy{
			Title:    "A promise invite is waiting",
			Body:     "You still have an open invite. Accept or decline so the other side knows where they stand.",
			CTALabel: "Respond now",
		}
	case models.CategoryDueSoon:
		return Copy{
			Title:    "Deadline coming up",
			Body:     fmt.Sprintf("A promise is due in about %s.", roundedHours(delta)),
			CTALabel: "Open promise",
		}
	case models.CategoryOverdue:
		if role != nil && *role == models.RoleCreator {
			return Copy{
				Title:    "A promise to you is overdue",
				Body:     "The deadline passed without completion. You may want to check in.",
				CTALabel: "Open promise",
			}
		}
		return Copy{
			Title:    "You have an overdue promise",
			Body:     fmt.Sprintf("The deadline passed %s ago. Mark it complete or talk to the other side.", roundedHours(delta)),
			CTALabel: "Open promise",
		}
	case models.CategoryCompletionWaiting:
		return Copy{
			Title:    "Completion awaiting your confirmation",
			Body:     "The other side marked the promise complete. Confirm or dispute the outcome.",
			CTALabel: "Review now",
		}
	case models.CategoryCompletionFollowup:
		if stage == Stage72h {
			return Copy{
				Title:    "Last reminder: confirm the outcome",
				Body:     "A completed promise has been waiting three days for your confirmation.",
				CTALabel: "Review now",
			}
		}
		return Copy{
			Title:    "Still awaiting your confirmation",
			Body:     "A completed promise needs your confirmation or dispute.",
			CTALabel: "Review now",
		}
	case models.CategoryDispute:
		return Copy{
			Title:    "The outcome was disputed",
			Body:     "The other side disputed the completion. Take a look at their reasons.",
			CTALabel: "Open promise",
		}
	case models.CategoryConfirmed:
		return Copy{
			Title:    "Promise confirmed",
			Body:     "The other side confirmed the outcome. The deal is closed.",
			CTALabel: "Open promise",
		}
	}
	return Copy{Title: "Promise update", Body: "Something changed on one of your promises.", CTALabel: "Open promise"}
}

func roundedHours(delta time.Duration) string {
	if delta < 0 {
		delta = -delta
	}
	hours := int(delta.Round(time.Hour).Hours())
	if hours <= 1 {
		return "an hour"
	}
	if hours >= 24 {
		days := hours / 24
		if days == 1 {
			return "a day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return fmt.Sprintf("%d hours", hours)
}
