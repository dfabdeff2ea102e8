package notification

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/repository"
)

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	createErr     error
	// hideFromPrecheck makes the dedupe pre-check miss so the insert
	// conflict path can be exercised.
	hideFromPrecheck bool
}

func (f *fakeNotificationRepo) Create(_ context.Context, params repository.CreateNotificationParams) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Notification{}, f.createErr
	}
	for _, n := range f.notifications {
		if n.UserID == params.UserID && n.DedupeKey == params.DedupeKey {
			return models.Notification{}, repository.ErrDuplicateNotification
		}
	}
	notif := models.Notification{
		ID:          fmt.Sprintf("n-%d", len(f.notifications)+1),
		UserID:      params.UserID,
		PromiseID:   params.PromiseID,
		Category:    params.Category,
		Role:        params.Role,
		Title:       params.Title,
		Body:        params.Body,
		CTAURL:      params.CTAURL,
		CTALabel:    params.CTALabel,
		Priority:    params.Priority,
		DedupeKey:   params.DedupeKey,
		DeliveredAt: params.DeliveredAt,
		CreatedAt:   params.CreatedAt,
	}
	f.notifications = append(f.notifications, notif)
	return notif, nil
}

func (f *fakeNotificationRepo) ExistsByDedupeKey(_ context.Context, userID, dedupeKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideFromPrecheck {
		return false, nil
	}
	for _, n := range f.notifications {
		if n.UserID == userID && n.DedupeKey == dedupeKey {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) CountCreatedSince(_ context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && n.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) LastCategorySendAt(_ context.Context, userID, promiseID string, category models.NotificationCategory) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *time.Time
	for _, n := range f.notifications {
		if n.UserID == userID && n.PromiseID == promiseID && n.Category == category {
			t := n.CreatedAt
			if last == nil || t.After(*last) {
				last = &t
			}
		}
	}
	return last, nil
}

func (f *fakeNotificationRepo) ListRecent(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for i := len(f.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if f.notifications[i].UserID == userID {
			out = append(out, f.notifications[i])
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notifications {
		if n.ID == notificationID && n.UserID == userID {
			now := time.Now()
			f.notifications[i].ReadAt = &now
			return f.notifications[i], nil
		}
	}
	return models.Notification{}, sql.ErrNoRows
}

func (f *fakeNotificationRepo) byKey(userID, dedupeKey string) (models.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.UserID == userID && n.DedupeKey == dedupeKey {
			return n, true
		}
	}
	return models.Notification{}, false
}

func (f *fakeNotificationRepo) seed(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = fmt.Sprintf("seed-%d", len(f.notifications)+1)
	f.notifications = append(f.notifications, n)
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]models.UserNotificationSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]models.UserNotificationSettings)}
}

func (f *fakeSettingsRepo) GetByUserID(_ context.Context, userID string) (models.UserNotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings, ok := f.settings[userID]
	if !ok {
		return models.UserNotificationSettings{}, sql.ErrNoRows
	}
	return settings, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, settings models.UserNotificationSettings) (models.UserNotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[settings.UserID] = settings
	return settings, nil
}

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*models.PromiseNotificationState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*models.PromiseNotificationState)}
}

func (f *fakeStateRepo) Ensure(_ context.Context, promiseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[promiseID]; !ok {
		f.states[promiseID] = &models.PromiseNotificationState{PromiseID: promiseID}
	}
	return nil
}

func (f *fakeStateRepo) Get(_ context.Context, promiseID string) (models.PromiseNotificationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[promiseID]
	if !ok {
		return models.PromiseNotificationState{}, sql.ErrNoRows
	}
	return *state, nil
}

func (f *fakeStateRepo) MarkInviteNotified(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) { s.InviteNotifiedAt = &at })
}

func (f *fakeStateRepo) MarkInviteFollowupNotified(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) { s.InviteFollowupNotifiedAt = &at })
}

func (f *fakeStateRepo) MarkDueSoonNotified(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) { s.DueSoonNotifiedAt = &at })
}

func (f *fakeStateRepo) MarkOverdueNotified(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) { s.OverdueNotifiedAt = &at })
}

func (f *fakeStateRepo) MarkOverdueCreatorNotified(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) { s.OverdueCreatorNotifiedAt = &at })
}

func (f *fakeStateRepo) StartCompletionCycle(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) {
		s.CompletionNotifiedAt = &at
		s.CompletionFollowupsCount = 0
		s.CompletionCycleID++
		s.CompletionCycleStartedAt = &at
	})
}

func (f *fakeStateRepo) IncrementCompletionFollowups(_ context.Context, promiseID string, at time.Time) error {
	return f.set(promiseID, func(s *models.PromiseNotificationState) {
		s.CompletionFollowupsCount++
		s.UpdatedAt = at
	})
}

func (f *fakeStateRepo) set(promiseID string, apply func(*models.PromiseNotificationState)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[promiseID]
	if !ok {
		state = &models.PromiseNotificationState{PromiseID: promiseID}
		f.states[promiseID] = state
	}
	apply(state)
	return nil
}

type fakePushSender struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (f *fakePushSender) Send(_ context.Context, userID string, category models.NotificationCategory, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, userID+":"+string(category))
	return nil
}

func (f *fakePushSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}
