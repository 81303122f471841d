package tracker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ritualhq/ritual/internal/database"
	"github.com/ritualhq/ritual/internal/model"
	"github.com/ritualhq/ritual/internal/store"
)

func setupService(t *testing.T) (*Service, *store.TaskStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tasks := store.NewTaskStore(db)
	entries := store.NewEntryStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(tasks, entries, logger)
	// Pin the clock so streak arithmetic is deterministic.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	}
	return svc, tasks, u.ID
}

func createServiceTask(t *testing.T, tasks *store.TaskStore, userID int64, title string) *model.Task {
	t.Helper()
	task, err := tasks.Create(userID, title, "", "daily", nil, "")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestLogEntryUpdatesAggregates(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	for _, date := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		if _, err := svc.LogEntry(userID, task.ID, date, true, nil, nil, ""); err != nil {
			t.Fatalf("log entry %s: %v", date, err)
		}
	}

	got, err := tasks.GetByID(task.ID, userID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.CurrentStreak != 3 {
		t.Errorf("current streak = %d, want 3", got.CurrentStreak)
	}
	if got.BestStreak != 3 {
		t.Errorf("best streak = %d, want 3", got.BestStreak)
	}
	if got.TotalCompletions != 3 {
		t.Errorf("total completions = %d, want 3", got.TotalCompletions)
	}
}

func TestLogEntryIdempotent(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	if _, err := svc.LogEntry(userID, task.ID, "2026-03-10", true, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}
	first, err := tasks.GetByID(task.ID, userID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	// Logging the same day again must leave the aggregates unchanged.
	if _, err := svc.LogEntry(userID, task.ID, "2026-03-10", true, nil, nil, ""); err != nil {
		t.Fatalf("repeat log entry: %v", err)
	}
	second, err := tasks.GetByID(task.ID, userID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}

	if second.CurrentStreak != first.CurrentStreak ||
		second.BestStreak != first.BestStreak ||
		second.TotalCompletions != first.TotalCompletions {
		t.Errorf("aggregates changed on repeat log: %d/%d/%d -> %d/%d/%d",
			first.CurrentStreak, first.BestStreak, first.TotalCompletions,
			second.CurrentStreak, second.BestStreak, second.TotalCompletions)
	}
}

func TestLogEntryUncompleteReducesStreak(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	for _, date := range []string{"2026-03-09", "2026-03-10"} {
		if _, err := svc.LogEntry(userID, task.ID, date, true, nil, nil, ""); err != nil {
			t.Fatalf("log entry %s: %v", date, err)
		}
	}

	// Correcting yesterday to not-completed breaks the run.
	if _, err := svc.LogEntry(userID, task.ID, "2026-03-09", false, nil, nil, ""); err != nil {
		t.Fatalf("correct entry: %v", err)
	}

	got, _ := tasks.GetByID(task.ID, userID)
	if got.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", got.CurrentStreak)
	}
	if got.TotalCompletions != 1 {
		t.Errorf("total completions = %d, want 1", got.TotalCompletions)
	}
}

func TestLogEntryBackfillJoinsRuns(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	for _, date := range []string{"2026-03-06", "2026-03-07", "2026-03-09", "2026-03-10"} {
		if _, err := svc.LogEntry(userID, task.ID, date, true, nil, nil, ""); err != nil {
			t.Fatalf("log entry %s: %v", date, err)
		}
	}
	got, _ := tasks.GetByID(task.ID, userID)
	if got.CurrentStreak != 2 {
		t.Errorf("current streak before backfill = %d, want 2", got.CurrentStreak)
	}

	// Backfilling the gap day merges both runs into one.
	if _, err := svc.LogEntry(userID, task.ID, "2026-03-08", true, nil, nil, ""); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	got, _ = tasks.GetByID(task.ID, userID)
	if got.CurrentStreak != 5 {
		t.Errorf("current streak after backfill = %d, want 5", got.CurrentStreak)
	}
	if got.BestStreak != 5 {
		t.Errorf("best streak after backfill = %d, want 5", got.BestStreak)
	}
}

func TestLogEntryUnknownTask(t *testing.T) {
	svc, _, userID := setupService(t)

	_, err := svc.LogEntry(userID, 9999, "2026-03-10", true, nil, nil, "")
	if err != store.ErrNotFound {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestLogEntryOtherUsersTask(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	_, err := svc.LogEntry(userID+1, task.ID, "2026-03-10", true, nil, nil, "")
	if err != store.ErrNotFound {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestStatisticsEmpty(t *testing.T) {
	svc, _, userID := setupService(t)

	stats, err := svc.Statistics(userID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalTasks != 0 || stats.TotalCompletions != 0 || stats.BestStreak != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
	// No entries in the window: rate is 0, not NaN.
	if stats.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0", stats.CompletionRate)
	}
}

func TestStatisticsAcrossTasks(t *testing.T) {
	svc, tasks, userID := setupService(t)
	run := createServiceTask(t, tasks, userID, "Run")
	read := createServiceTask(t, tasks, userID, "Read")

	// Run: 3-day streak ending today.
	for _, date := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		if _, err := svc.LogEntry(userID, run.ID, date, true, nil, nil, ""); err != nil {
			t.Fatalf("log entry: %v", err)
		}
	}
	// Read: one completed day, one explicit miss.
	if _, err := svc.LogEntry(userID, read.ID, "2026-03-09", true, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}
	if _, err := svc.LogEntry(userID, read.ID, "2026-03-10", false, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}

	stats, err := svc.Statistics(userID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalTasks != 2 {
		t.Errorf("total tasks = %d, want 2", stats.TotalTasks)
	}
	if stats.TotalCompletions != 4 {
		t.Errorf("total completions = %d, want 4", stats.TotalCompletions)
	}
	if stats.BestStreak != 3 {
		t.Errorf("best streak = %d, want 3", stats.BestStreak)
	}
	// Run has a live streak; Read's was just broken.
	if stats.CurrentActiveStreaks != 1 {
		t.Errorf("active streaks = %d, want 1", stats.CurrentActiveStreaks)
	}
	// 4 completed of 5 entries in the trailing window.
	if stats.CompletionRate != 80.0 {
		t.Errorf("completion rate = %v, want 80.0", stats.CompletionRate)
	}
}

func TestStatisticsWindowBoundaryInclusive(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	// Day 30 of the window counting back from the pinned 2026-03-10.
	if _, err := svc.LogEntry(userID, task.ID, "2026-02-09", false, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}
	// One day older: just outside.
	if _, err := svc.LogEntry(userID, task.ID, "2026-02-08", false, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}
	if _, err := svc.LogEntry(userID, task.ID, "2026-03-10", true, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}

	stats, err := svc.Statistics(userID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	// 1 of 2 entries in the window: the miss on 2026-02-09 counts, the
	// one on 2026-02-08 does not.
	if stats.CompletionRate != 50.0 {
		t.Errorf("completion rate = %v, want 50.0", stats.CompletionRate)
	}
}

func TestStatisticsWindowExcludesOldEntries(t *testing.T) {
	svc, tasks, userID := setupService(t)
	task := createServiceTask(t, tasks, userID, "Run")

	// Outside the trailing 30-day window relative to the pinned clock.
	if _, err := svc.LogEntry(userID, task.ID, "2026-01-05", false, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}
	// Inside the window.
	if _, err := svc.LogEntry(userID, task.ID, "2026-03-10", true, nil, nil, ""); err != nil {
		t.Fatalf("log entry: %v", err)
	}

	stats, err := svc.Statistics(userID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.CompletionRate != 100.0 {
		t.Errorf("completion rate = %v, want 100.0 (old miss excluded)", stats.CompletionRate)
	}
}
