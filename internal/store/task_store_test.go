package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/timeutil"
	"github.com/taskchat/taskchat/tests/testutil"
)

func strPtr(s string) *string { return &s }

func createTask(t *testing.T, s *store.SQLiteStore, userID int64, title, date string) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.Task{
		UserID:   userID,
		Title:    title,
		Category: "general",
		Date:     date,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask_Defaults(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{UserID: 1, Title: "Pay rent"})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, timeutil.Today(), task.Date)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.Time)
	assert.False(t, task.Done)
	assert.Equal(t, 1, task.SortOrder)

	second, err := s.CreateTask(ctx, model.Task{UserID: 1, Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SortOrder)

	// Sort order is scoped per owner.
	other, err := s.CreateTask(ctx, model.Task{UserID: 2, Title: "Call mom"})
	require.NoError(t, err)
	assert.Equal(t, 1, other.SortOrder)
}

func TestUpdateTask_PartialFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Dentist", "2024-01-10")

	updated, err := s.UpdateTask(ctx, 1, task.ID, store.TaskPatch{
		Title: strPtr("Dentist appointment"),
		Time:  strPtr("09:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dentist appointment", updated.Title)
	require.NotNil(t, updated.Time)
	assert.Equal(t, "09:30", *updated.Time)
	// Untouched fields survive.
	assert.Equal(t, "2024-01-10", updated.Date)
	assert.Equal(t, "general", updated.Category)
}

func TestUpdateTask_NoFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	task := createTask(t, s, 1, "Dentist", "2024-01-10")

	_, err := s.UpdateTask(context.Background(), 1, task.ID, store.TaskPatch{})
	assert.ErrorIs(t, err, store.ErrNoFields)
}

func TestUpdateTask_WrongOwner(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Private", "2024-01-10")

	_, err := s.UpdateTask(ctx, 2, task.ID, store.TaskPatch{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The task is unchanged for its real owner.
	tasks, err := s.ListTasks(ctx, 1, store.WindowAll, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Private", tasks[0].Title)
}

func TestUpdateTask_ClearTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Gym", "2024-01-10")

	withTime, err := s.UpdateTask(ctx, 1, task.ID, store.TaskPatch{Time: strPtr("18:00")})
	require.NoError(t, err)
	require.NotNil(t, withTime.Time)

	cleared, err := s.UpdateTask(ctx, 1, task.ID, store.TaskPatch{Time: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Time)
}

func TestRescheduleTask_ClearsDone(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Report", "2024-01-10")

	ok, err := s.SetTaskDone(ctx, 1, task.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	moved, err := s.RescheduleTask(ctx, 1, task.ID, "2024-01-12", strPtr("14:00"))
	require.NoError(t, err)
	assert.False(t, moved.Done)
	assert.Equal(t, "2024-01-12", moved.Date)
	require.NotNil(t, moved.Time)
	assert.Equal(t, "14:00", *moved.Time)
}

func TestRescheduleTask_WrongOwner(t *testing.T) {
	s := testutil.NewTestStore(t)
	task := createTask(t, s, 1, "Report", "2024-01-10")

	_, err := s.RescheduleTask(context.Background(), 2, task.ID, "2024-01-12", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Temp", "2024-01-10")

	// Wrong owner looks exactly like a missing task.
	ok, err := s.DeleteTask(ctx, 2, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteTask(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Deleting again is a no-op false, not an error.
	ok, err = s.DeleteTask(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetTaskDone_Idempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	task := createTask(t, s, 1, "Repeat", "2024-01-10")

	for i := 0; i < 2; i++ {
		ok, err := s.SetTaskDone(ctx, 1, task.ID, true)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	tasks, err := s.ListTasks(ctx, 1, store.WindowAll, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Done)
}

func TestListTasks_Ordering(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	createTask(t, s, 1, "Later day", "2024-01-12")
	createTask(t, s, 1, "First same day", "2024-01-10")
	createTask(t, s, 1, "Second same day", "2024-01-10")

	tasks, err := s.ListTasks(ctx, 1, store.WindowAll, "")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "First same day", tasks[0].Title)
	assert.Equal(t, "Second same day", tasks[1].Title)
	assert.Equal(t, "Later day", tasks[2].Title)
}

func TestListTasks_TodayWindow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	createTask(t, s, 1, "On the day", "2024-01-10")
	createTask(t, s, 1, "Day before", "2024-01-09")
	createTask(t, s, 1, "Day after", "2024-01-11")

	tasks, err := s.ListTasks(ctx, 1, store.WindowToday, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "On the day", tasks[0].Title)
}

func TestListTasks_WeekWindow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// Anchor Wednesday 2024-01-10: week is Mon 2024-01-08 .. Sun 2024-01-14.
	createTask(t, s, 1, "Monday edge", "2024-01-08")
	createTask(t, s, 1, "Sunday edge", "2024-01-14")
	createTask(t, s, 1, "Previous Sunday", "2024-01-07")
	createTask(t, s, 1, "Next Monday", "2024-01-15")

	tasks, err := s.ListTasks(ctx, 1, store.WindowWeek, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Monday edge", tasks[0].Title)
	assert.Equal(t, "Sunday edge", tasks[1].Title)
}

func TestListTasks_ScopedByOwner(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	createTask(t, s, 1, "Mine", "2024-01-10")
	createTask(t, s, 2, "Theirs", "2024-01-10")

	tasks, err := s.ListTasks(ctx, 1, store.WindowAll, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Mine", tasks[0].Title)
}
