package store

import (
	"database/sql"
	"fmt"

	"github.com/ritualhq/ritual/internal/model"
)

type EntryStore struct {
	db *sql.DB
}

func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.Entry, error) {
	var e model.Entry
	var value sql.NullFloat64
	var duration sql.NullInt64

	err := scanner.Scan(
		&e.ID, &e.TaskID, &e.UserID, &e.Date, &e.Completed,
		&value, &duration, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		e.Value = &value.Float64
	}
	if duration.Valid {
		d := int(duration.Int64)
		e.DurationMinutes = &d
	}
	return &e, nil
}

const entryCols = `id, task_id, user_id, date, completed, value, duration_minutes, notes, created_at, updated_at`

// Upsert writes the completion fact for (task, user, date). A second write
// for the same triple overwrites the existing row in place; the unique
// index guarantees no duplicate can ever be created, even under concurrent
// calls.
func (s *EntryStore) Upsert(taskID, userID int64, date string, completed bool, value *float64, durationMinutes *int, notes string) (*model.Entry, error) {
	var v sql.NullFloat64
	if value != nil {
		v = sql.NullFloat64{Float64: *value, Valid: true}
	}
	var d sql.NullInt64
	if durationMinutes != nil {
		d = sql.NullInt64{Int64: int64(*durationMinutes), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (task_id, user_id, date, completed, value, duration_minutes, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id, user_id, date) DO UPDATE SET
		   completed = excluded.completed,
		   value = excluded.value,
		   duration_minutes = excluded.duration_minutes,
		   notes = excluded.notes,
		   updated_at = CURRENT_TIMESTAMP`,
		taskID, userID, date, completed, v, d, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert entry: %w", err)
	}

	// LastInsertId is unreliable on conflict update; re-query by triple.
	return s.getByTriple(taskID, userID, date)
}

func (s *EntryStore) getByTriple(taskID, userID int64, date string) (*model.Entry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryCols+` FROM entries WHERE task_id = ? AND user_id = ? AND date = ?`,
		taskID, userID, date,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListForTask returns a task's full entry log in descending date order.
func (s *EntryStore) ListForTask(taskID, userID int64) ([]model.Entry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM entries WHERE task_id = ? AND user_id = ? ORDER BY date DESC`,
		taskID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListSince returns all of a user's entries dated on or after since
// ("YYYY-MM-DD"). Lexicographic comparison on the date column matches
// chronological order for this format.
func (s *EntryStore) ListSince(userID int64, since string) ([]model.Entry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM entries WHERE user_id = ? AND date >= ? ORDER BY date DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries since: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListForDate returns a user's entries on one calendar date, across tasks.
func (s *EntryStore) ListForDate(userID int64, date string) ([]model.Entry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM entries WHERE user_id = ? AND date = ?`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries for date: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
