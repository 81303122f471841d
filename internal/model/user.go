package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Statistics summarizes a user's habits across all active tasks.
type Statistics struct {
	TotalTasks           int     `json:"total_tasks"`
	TotalCompletions     int     `json:"total_completions"`
	BestStreak           int     `json:"best_streak"`
	CurrentActiveStreaks int     `json:"current_active_streaks"`
	CompletionRate       float64 `json:"completion_rate"`
}
