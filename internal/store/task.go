package store

import (
	"database/sql"
	"fmt"

	"github.com/ritualhq/ritual/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var targetValue sql.NullFloat64

	err := scanner.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Frequency,
		&targetValue, &t.Unit,
		&t.CurrentStreak, &t.BestStreak, &t.TotalCompletions,
		&t.DisplayOrder, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetValue.Valid {
		t.TargetValue = &targetValue.Float64
	}
	return &t, nil
}

const taskCols = `id, user_id, title, description, frequency, target_value, unit, current_streak, best_streak, total_completions, display_order, is_active, created_at, updated_at`

func (s *TaskStore) Create(userID int64, title, description, frequency string, targetValue *float64, unit string) (*model.Task, error) {
	// New tasks go to the end of the user's list.
	var maxOrder int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(display_order), -1) FROM tasks WHERE user_id = ? AND is_active = 1`,
		userID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max display_order: %w", err)
	}

	var tv sql.NullFloat64
	if targetValue != nil {
		tv = sql.NullFloat64{Float64: *targetValue, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (user_id, title, description, frequency, target_value, unit, display_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, title, description, frequency, tv, unit, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

// GetByID returns the task, or nil when it does not exist, is inactive, or
// belongs to a different user.
func (s *TaskStore) GetByID(id, userID int64) (*model.Task, error) {
	row := s.db.QueryRow(
		`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ? AND is_active = 1`,
		id, userID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the user's active tasks in display order. created_at breaks
// ties for equal display_order values.
func (s *TaskStore) List(userID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE user_id = ? AND is_active = 1 ORDER BY display_order ASC, created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id, userID int64, title, description, frequency string, targetValue *float64, unit string) (*model.Task, error) {
	var tv sql.NullFloat64
	if targetValue != nil {
		tv = sql.NullFloat64{Float64: *targetValue, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, frequency = ?, target_value = ?, unit = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ? AND is_active = 1`,
		title, description, frequency, tv, unit, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id, userID)
}

// UpdateAggregates is the single write path for the cached streak fields.
// Nothing else mutates current_streak, best_streak or total_completions.
func (s *TaskStore) UpdateAggregates(id, userID int64, currentStreak, bestStreak, totalCompletions int) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET current_streak = ?, best_streak = ?, total_completions = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		currentStreak, bestStreak, totalCompletions, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update aggregates: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a task. Rows are never physically removed; the
// entry log stays intact underneath.
func (s *TaskStore) Deactivate(id, userID int64) error {
	result, err := s.db.Exec(
		`UPDATE tasks SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ? AND is_active = 1`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deactivate task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder moves draggedID to targetID's position in the user's list and
// renumbers every task to its new zero-based index, all inside one
// transaction so ranks stay contiguous even if requests race.
func (s *TaskStore) Reorder(userID, draggedID, targetID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id FROM tasks WHERE user_id = ? AND is_active = 1 ORDER BY display_order ASC, created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("list tasks for reorder: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate task ids: %w", err)
	}
	rows.Close()

	draggedIdx, targetIdx := -1, -1
	for i, id := range ids {
		if id == draggedID {
			draggedIdx = i
		}
		if id == targetID {
			targetIdx = i
		}
	}
	if draggedIdx == -1 || targetIdx == -1 {
		return ErrNotFound
	}

	// Splice: remove the dragged id, reinsert at the target's old index.
	reordered := append(ids[:draggedIdx:draggedIdx], ids[draggedIdx+1:]...)
	reordered = append(reordered[:targetIdx:targetIdx], append([]int64{draggedID}, reordered[targetIdx:]...)...)

	stmt, err := tx.Prepare(`UPDATE tasks SET display_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, id := range reordered {
		if _, err := stmt.Exec(i, id, userID); err != nil {
			return fmt.Errorf("update display_order for id %d: %w", id, err)
		}
	}

	return tx.Commit()
}
