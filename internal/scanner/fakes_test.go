package scanner

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pactly/pactly-api/internal/models"
	"github.com/pactly/pactly-api/internal/notification"
	"github.com/pactly/pactly-api/internal/repository"
)

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*models.PromiseNotificationState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*models.PromiseNotificationState)}
}

func (f *fakeStateRepo) put(state models.PromiseNotificationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := state
	f.states[state.PromiseID] = &copied
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

// fakePromiseStore mirrors the candidate queries over an in-memory
// promise list, reading the scoreboard live from the state repo so
// consecutive scans see their own updates.
type fakePromiseStore struct {
	promises []models.Promise
	states   *fakeStateRepo
	listErr  error
}

func (f *fakePromiseStore) GetByID(_ context.Context, promiseID string) (models.Promise, error) {
	for _, p := range f.promises {
		if p.ID == promiseID {
			return p, nil
		}
	}
	return models.Promise{}, sql.ErrNoRows
}

func (f *fakePromiseStore) stateOf(promiseID string) models.PromiseNotificationState {
	state, err := f.states.Get(context.Background(), promiseID)
	if err != nil {
		return models.PromiseNotificationState{PromiseID: promiseID}
	}
	return state
}

func (f *fakePromiseStore) candidates(match func(models.Promise, models.PromiseNotificationState) bool) ([]repository.Candidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []repository.Candidate
	for _, p := range f.promises {
		state := f.stateOf(p.ID)
		if match(p, state) {
			out = append(out, repository.Candidate{Promise: p, State: state})
		}
	}
	return out, nil
}

func (f *fakePromiseStore) ListInviteFollowupCandidates(_ context.Context, now time.Time) ([]repository.Candidate, error) {
	return f.candidates(func(p models.Promise, s models.PromiseNotificationState) bool {
		return p.Status == models.PromiseStatusPending &&
			p.AcceptedAt == nil &&
			s.InviteNotifiedAt != nil &&
			!s.InviteNotifiedAt.After(now.Add(-24*time.Hour)) &&
			s.InviteFollowupNotifiedAt == nil
	})
}

func (f *fakePromiseStore) ListDueSoonCandidates(_ context.Context, now time.Time) ([]repository.Candidate, error) {
	return f.candidates(func(p models.Promise, s models.PromiseNotificationState) bool {
		return p.Status == models.PromiseStatusActive &&
			p.DueAt != nil &&
			p.DueAt.After(now) &&
			!p.DueAt.After(now.Add(24*time.Hour)) &&
			s.DueSoonNotifiedAt == nil
	})
}

func (f *fakePromiseStore) ListOverdueCandidates(_ context.Context, now time.Time) ([]repository.Candidate, error) {
	return f.candidates(func(p models.Promise, s models.PromiseNotificationState) bool {
		if p.Status != models.PromiseStatusActive || p.DueAt == nil || p.DueAt.After(now) {
			return false
		}
		return s.OverdueNotifiedAt == nil ||
			!s.OverdueNotifiedAt.After(now.Add(-72*time.Hour)) ||
			s.OverdueCreatorNotifiedAt == nil
	})
}

func (f *fakePromiseStore) ListCompletionFollowupCandidates(_ context.Context, now time.Time) ([]repository.Candidate, error) {
	return f.candidates(func(p models.Promise, s models.PromiseNotificationState) bool {
		return p.Status == models.PromiseStatusAwaitingConfirmation &&
			s.CompletionNotifiedAt != nil &&
			s.CompletionFollowupsCount < 2 &&
			!s.CompletionNotifiedAt.After(now.Add(-24*time.Hour))
	})
}

// fakeWriter grants every first write and reports dedupe on repeats, the
// same contract the real writer exposes to the scanner.
type fakeWriter struct {
	mu       sync.Mutex
	requests []notification.WriteRequest
	seen     map[string]bool
	// skipKeys forces a specific skip outcome per dedupe key.
	skipKeys map[string]notification.SkipReason
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		seen:     make(map[string]bool),
		skipKeys: make(map[string]notification.SkipReason),
	}
}

func (f *fakeWriter) Write(_ context.Context, req notification.WriteRequest) notification.WriteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if reason, ok := f.skipKeys[req.DedupeKey]; ok {
		return notification.WriteResult{SkipReason: reason}
	}
	key := req.UserID + "|" + req.DedupeKey
	if f.seen[key] {
		return notification.WriteResult{SkipReason: notification.SkipDedupe}
	}
	f.seen[key] = true

	notif := models.Notification{
		ID:        key,
		UserID:    req.UserID,
		PromiseID: req.PromiseID,
		Category:  req.Category,
		DedupeKey: req.DedupeKey,
	}
	return notification.WriteResult{Created: true, Notification: &notif}
}

func (f *fakeWriter) requestsFor(userID string) []notification.WriteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification.WriteRequest
	for _, req := range f.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out
}
