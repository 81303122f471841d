package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/streak"
)

// reminderHour is the local hour after which the daily reminder may fire.
const reminderHour = 18

// Scheduler periodically nudges users who still have unlogged habits today.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	tasks    *store.TaskStore
	entries  *store.EntryStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(svc *Service, pushStore *store.PushStore, taskStore *store.TaskStore, entryStore *store.EntryStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		tasks:    taskStore,
		entries:  entryStore,
		logger:   logger,
		interval: 15 * time.Minute,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	if now.Hour() < reminderHour {
		return
	}

	userIDs, err := s.push.ListUserIDs()
	if err != nil {
		s.logger.Error("list users with subscriptions", "error", err)
		return
	}

	for _, uid := range userIDs {
		s.remindUser(uid, now)
	}
}

// remindUser sends at most one reminder per user per calendar day, and only
// when at least one active task has no entry yet for today.
func (s *Scheduler) remindUser(userID int64, now time.Time) {
	today := streak.Day(now).Format(streak.DateLayout)
	refID := fmt.Sprintf("daily-%s", today)

	sent, err := s.push.WasSent(userID, model.NotifTypeTaskReminder, refID)
	if err != nil || sent {
		return
	}

	tasks, err := s.tasks.List(userID)
	if err != nil {
		s.logger.Error("list tasks for reminder", "user_id", userID, "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	entries, err := s.entries.ListForDate(userID, today)
	if err != nil {
		s.logger.Error("list today's entries", "user_id", userID, "error", err)
		return
	}

	logged := make(map[int64]bool, len(entries))
	for _, e := range entries {
		logged[e.TaskID] = true
	}

	remaining := 0
	var lastTitle string
	for _, t := range tasks {
		if !logged[t.ID] {
			remaining++
			lastTitle = t.Title
		}
	}
	if remaining == 0 {
		return
	}

	payload := reminderPayload(remaining, lastTitle)

	// MarkSent first so racing ticks can't double-send.
	ok, err := s.push.MarkSent(userID, model.NotifTypeTaskReminder, refID)
	if err != nil || !ok {
		return
	}

	subs, err := s.push.ListByUser(userID)
	if err != nil {
		s.logger.Error("list subscriptions", "user_id", userID, "error", err)
		return
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Warn("send reminder", "user_id", userID, "error", err)
			}
		}
	}
}
