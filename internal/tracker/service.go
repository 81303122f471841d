package tracker

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
	"github.com/ritualhq/ritual/internal/streak"
)

// statsWindowDays is the trailing window for the completion rate.
const statsWindowDays = 30

// Service owns the completion write path. Every change to a task's entry
// log goes through LogEntry, which re-reads the full log and rewrites the
// task's cached aggregates before returning; no other code touches
// current_streak, best_streak or total_completions.
type Service struct {
	tasks   *store.TaskStore
	entries *store.EntryStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(tasks *store.TaskStore, entries *store.EntryStore, logger *slog.Logger) *Service {
	return &Service{
		tasks:   tasks,
		entries: entries,
		logger:  logger,
		now:     time.Now,
	}
}

// LogEntry upserts the completion fact for (task, user, date) and
// synchronously recomputes the task's streak aggregates from the full log.
// Returns store.ErrNotFound when the task does not exist, is inactive, or
// belongs to another user.
func (s *Service) LogEntry(userID, taskID int64, date string, completed bool, value *float64, durationMinutes *int, notes string) (*model.Entry, error) {
	task, err := s.tasks.GetByID(taskID, userID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, store.ErrNotFound
	}

	entry, err := s.entries.Upsert(taskID, userID, date, completed, value, durationMinutes, notes)
	if err != nil {
		return nil, err
	}

	if err := s.recompute(taskID, userID); err != nil {
		return nil, err
	}
	return entry, nil
}

// recompute re-reads the task's full entry log and persists the derived
// aggregates. Always a full rescan: a backfilled past-date entry can join
// two historical runs, which incremental counters would miss.
func (s *Service) recompute(taskID, userID int64) error {
	entries, err := s.entries.ListForTask(taskID, userID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	agg := streak.Compute(entries, s.now())
	if err := s.tasks.UpdateAggregates(taskID, userID, agg.CurrentStreak, agg.BestStreak, agg.TotalCompletions); err != nil {
		return err
	}

	s.logger.Debug("recomputed aggregates",
		"task_id", taskID,
		"current_streak", agg.CurrentStreak,
		"best_streak", agg.BestStreak,
		"total_completions", agg.TotalCompletions,
	)
	return nil
}

// Statistics summarizes the user's active tasks from their cached
// aggregates, plus a completion rate over the trailing 30 calendar days.
func (s *Service) Statistics(userID int64) (*model.Statistics, error) {
	tasks, err := s.tasks.List(userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	stats := &model.Statistics{TotalTasks: len(tasks)}
	for _, t := range tasks {
		stats.TotalCompletions += t.TotalCompletions
		if t.BestStreak > stats.BestStreak {
			stats.BestStreak = t.BestStreak
		}
		if t.CurrentStreak > 0 {
			stats.CurrentActiveStreaks++
		}
	}

	// The window includes today, so it starts statsWindowDays-1 days back.
	since := streak.Day(s.now()).AddDate(0, 0, -(statsWindowDays - 1)).Format(streak.DateLayout)
	entries, err := s.entries.ListSince(userID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	if len(entries) > 0 {
		completed := 0
		for _, e := range entries {
			if e.Completed {
				completed++
			}
		}
		rate := float64(completed) / float64(len(entries)) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}

	return stats, nil
}
