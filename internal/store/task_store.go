package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/timeutil"
)

// CreateTask inserts a new task. Generates a UUID if ID is empty, defaults
// the date to today and the priority to Medium, and assigns the next
// sort_order within the owner's list.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Date == "" {
		task.Date = timeutil.Today()
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	// Default sort_order to max+1 within the owner's tasks.
	if task.SortOrder == 0 {
		var maxOrder int
		err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM tasks WHERE user_id = ?",
			task.UserID)
		if err != nil {
			return nil, fmt.Errorf("getting max sort_order: %w", err)
		}
		task.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, description, category,
			date, time, priority, links, done, sort_order,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, task.Category,
		task.Date, task.Time, task.Priority, task.Links,
		boolToInt(task.Done), task.SortOrder,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return s.getOwnedTask(ctx, task.UserID, task.ID)
}

// UpdateTask applies only the fields set in patch to the task, provided it
// belongs to userID. The ownership check and the mutation are one
// conditional statement. Returns ErrNoFields for an empty patch and
// ErrNotFound when the id is absent or owned by someone else.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	userID int64,
	id string,
	patch TaskPatch,
) (*model.Task, error) {
	if patch.Empty() {
		return nil, ErrNoFields
	}

	var sets []string
	var args []interface{}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *patch.Date)
	}
	if patch.Time != nil {
		sets = append(sets, "time = ?")
		if *patch.Time == "" {
			args = append(args, nil)
		} else {
			args = append(args, *patch.Time)
		}
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Links != nil {
		sets = append(sets, "links = ?")
		args = append(args, *patch.Links)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id, userID)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND user_id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.getOwnedTask(ctx, userID, id)
}

// RescheduleTask moves a task to a new date/time and clears its completion
// flag: moving a task implicitly reopens it.
func (s *SQLiteStore) RescheduleTask(
	ctx context.Context,
	userID int64,
	id, date string,
	tm *string,
) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET date = ?, time = ?, done = 0, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		date, tm, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("rescheduling task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.getOwnedTask(ctx, userID, id)
}

// DeleteTask removes a task owned by userID. Returns true iff a row was
// removed; false covers both a missing id and one owned by another user.
func (s *SQLiteStore) DeleteTask(ctx context.Context, userID int64, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// SetTaskDone sets the completion flag on a task owned by userID. Returns
// true iff a row was affected.
func (s *SQLiteStore) SetTaskDone(ctx context.Context, userID int64, id string, done bool) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET done = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		boolToInt(done), time.Now().UTC(), id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking task %s done=%v: %w", id, done, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListTasks returns the user's tasks ordered by date then sort_order, both
// ascending. WindowToday filters to exactly the anchor date; WindowWeek
// spans the Monday through Sunday containing the anchor, inclusive. An
// empty anchor defaults to today.
func (s *SQLiteStore) ListTasks(
	ctx context.Context,
	userID int64,
	window Window,
	anchorDate string,
) ([]model.Task, error) {
	anchor := anchorDate
	if anchor == "" {
		anchor = timeutil.Today()
	}

	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}

	switch window {
	case WindowToday:
		conditions = append(conditions, "date = ?")
		args = append(args, anchor)
	case WindowWeek:
		monday, sunday, err := weekBounds(anchor)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "date BETWEEN ? AND ?")
		args = append(args, monday, sunday)
	}

	query := "SELECT * FROM tasks WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY date ASC, sort_order ASC"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// getOwnedTask fetches a single task scoped by owner.
func (s *SQLiteStore) getOwnedTask(ctx context.Context, userID int64, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM tasks WHERE id = ? AND user_id = ?", id, userID)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// weekBounds computes the Monday and Sunday of the week containing anchor.
func weekBounds(anchor string) (monday, sunday string, err error) {
	t, err := time.Parse(timeutil.DateLayout, anchor)
	if err != nil {
		return "", "", fmt.Errorf("parsing anchor date %q: %w", anchor, err)
	}
	offset := (int(t.Weekday()) + 6) % 7
	start := t.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout), nil
}

// scanTask scans a task row from sqlx.Rows or sqlx.Row.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task    model.Task
		tm      sql.NullString
		links   sql.NullString
		doneInt int
	)

	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Category,
		&task.Date, &tm, &task.Priority, &links, &doneInt, &task.SortOrder,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	if tm.Valid {
		task.Time = &tm.String
	}
	if links.Valid {
		task.Links = &links.String
	}
	task.Done = doneInt != 0

	return task, nil
}
