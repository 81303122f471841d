package store

import (
	"database/sql"
	"fmt"

	"github.com/ritualhq/ritual/internal/model"
)

type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

func scanJournalEntry(scanner interface{ Scan(...any) error }) (*model.JournalEntry, error) {
	var j model.JournalEntry
	err := scanner.Scan(&j.ID, &j.UserID, &j.Date, &j.Content, &j.Mood, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

const journalCols = `id, user_id, date, content, mood, created_at, updated_at`

// Upsert writes the journal entry for (user, date), overwriting any
// existing one for the same date.
func (s *JournalStore) Upsert(userID int64, date, content, mood string) (*model.JournalEntry, error) {
	_, err := s.db.Exec(
		`INSERT INTO journal_entries (user_id, date, content, mood)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
		   content = excluded.content,
		   mood = excluded.mood,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, date, content, mood,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert journal entry: %w", err)
	}
	return s.GetByDate(userID, date)
}

func (s *JournalStore) GetByDate(userID int64, date string) (*model.JournalEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+journalCols+` FROM journal_entries WHERE user_id = ? AND date = ?`,
		userID, date,
	)
	j, err := scanJournalEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return j, nil
}

// List returns the user's journal entries, most recent first.
func (s *JournalStore) List(userID int64, limit int) ([]model.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+journalCols+` FROM journal_entries WHERE user_id = ? ORDER BY date DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		j, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *j)
	}
	return entries, rows.Err()
}
