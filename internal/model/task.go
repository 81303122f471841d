package model

import "time"

type Task struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Frequency        string    `json:"frequency"`
	TargetValue      *float64  `json:"target_value"`
	Unit             string    `json:"unit"`
	CurrentStreak    int       `json:"current_streak"`
	BestStreak       int       `json:"best_streak"`
	TotalCompletions int       `json:"total_completions"`
	DisplayOrder     int       `json:"display_order"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Entry records whether a task was completed on one calendar date.
// Date is stored as "YYYY-MM-DD" with no time component; there is at most
// one entry per (task, user, date).
type Entry struct {
	ID              int64     `json:"id"`
	TaskID          int64     `json:"task_id"`
	UserID          int64     `json:"user_id"`
	Date            string    `json:"date"`
	Completed       bool      `json:"completed"`
	Value           *float64  `json:"value"`
	DurationMinutes *int      `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
