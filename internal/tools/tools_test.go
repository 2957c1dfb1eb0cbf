package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/timeutil"
	"github.com/taskchat/taskchat/internal/tools"
	"github.com/taskchat/taskchat/tests/testutil"
)

func newDispatcher(t *testing.T) (*tools.Dispatcher, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	return tools.NewDispatcher(s, zap.NewNop()), s
}

func dispatch(t *testing.T, d *tools.Dispatcher, userID int64, name, args string) tools.Result {
	t.Helper()
	return d.Dispatch(context.Background(), userID, name, json.RawMessage(args))
}

func TestDeclarations_CoverAllSixOperations(t *testing.T) {
	d, _ := newDispatcher(t)

	decls := d.Declarations()
	require.Len(t, decls, 6)

	names := make([]string, len(decls))
	for i, decl := range decls {
		names[i] = decl.Name
		// Each parameters blob must be valid JSON schema material.
		var schema map[string]interface{}
		require.NoError(t, json.Unmarshal(decl.Parameters, &schema), decl.Name)
	}
	assert.Equal(t, []string{
		"add_task", "edit_task", "reschedule_task",
		"delete_task", "set_task_done", "list_tasks",
	}, names)
}

func TestDispatch_UnknownTool(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "drop_all_tables", `{}`)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestAddTask_RequiredFields(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "add_task", `{"title": "Pay rent"}`)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "required")
}

func TestAddTask_DefaultsDateToToday(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "add_task",
		`{"title": "Pay rent", "description": "Monthly rent", "category": "Home"}`)
	require.True(t, result.OK, result.Error)
	require.NotNil(t, result.Task)
	assert.Equal(t, timeutil.Today(), result.Task.Date)
	assert.Equal(t, model.PriorityMedium, result.Task.Priority)
	assert.Nil(t, result.Task.Time)
}

func TestAddTask_NormalizesDateAndTime(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "add_task", `{
		"title": "Standup", "description": "Team sync", "category": "Work",
		"date": "10/01/2024", "time": "9:30", "priority": "High"
	}`)
	require.True(t, result.OK, result.Error)
	assert.Equal(t, "2024-01-10", result.Task.Date)
	require.NotNil(t, result.Task.Time)
	assert.Equal(t, "09:30", *result.Task.Time)
	assert.Equal(t, model.PriorityHigh, result.Task.Priority)
}

func TestAddTask_UnparseableDateFallsBackToToday(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "add_task", `{
		"title": "Vague", "description": "Sometime", "category": "Misc",
		"date": "whenever works"
	}`)
	require.True(t, result.OK, result.Error)
	assert.Equal(t, timeutil.Today(), result.Task.Date)
}

func TestEditTask_OwnershipAndNoFields(t *testing.T) {
	d, s := newDispatcher(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{
		UserID: 1, Title: "Mine", Category: "Work", Date: "2024-01-10",
	})
	require.NoError(t, err)

	// Another user's edit reads as not-found.
	result := dispatch(t, d, 2, "edit_task",
		`{"id": "`+task.ID+`", "title": "Stolen"}`)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "not found or not owned")

	// No optional fields supplied.
	result = dispatch(t, d, 1, "edit_task", `{"id": "`+task.ID+`"}`)
	assert.False(t, result.OK)
	assert.Equal(t, "No fields to update.", result.Error)

	// Owner's edit succeeds.
	result = dispatch(t, d, 1, "edit_task",
		`{"id": "`+task.ID+`", "title": "Renamed", "time": "15:00"}`)
	require.True(t, result.OK, result.Error)
	assert.Equal(t, "Renamed", result.Task.Title)
}

func TestRescheduleTask_RequiresAllArguments(t *testing.T) {
	d, _ := newDispatcher(t)

	result := dispatch(t, d, 1, "reschedule_task", `{"id": "abc", "date": "2024-01-12"}`)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "required")
}

func TestRescheduleTask_ReopensDoneTask(t *testing.T) {
	d, s := newDispatcher(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{
		UserID: 1, Title: "Report", Category: "Work", Date: "2024-01-10",
	})
	require.NoError(t, err)
	_, err = s.SetTaskDone(ctx, 1, task.ID, true)
	require.NoError(t, err)

	result := dispatch(t, d, 1, "reschedule_task",
		`{"id": "`+task.ID+`", "date": "2024-01-12", "time": "10:00"}`)
	require.True(t, result.OK, result.Error)
	assert.False(t, result.Task.Done)
	assert.Equal(t, "2024-01-12", result.Task.Date)
}

func TestDeleteTask_BooleanResult(t *testing.T) {
	d, s := newDispatcher(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{
		UserID: 1, Title: "Temp", Category: "Misc", Date: "2024-01-10",
	})
	require.NoError(t, err)

	// Not owned and missing are indistinguishable: plain ok=false.
	result := dispatch(t, d, 2, "delete_task", `{"id": "`+task.ID+`"}`)
	assert.False(t, result.OK)
	assert.Empty(t, result.Error)

	result = dispatch(t, d, 1, "delete_task", `{"id": "`+task.ID+`"}`)
	assert.True(t, result.OK)

	// Re-deleting is idempotent.
	result = dispatch(t, d, 1, "delete_task", `{"id": "`+task.ID+`"}`)
	assert.False(t, result.OK)
	assert.Empty(t, result.Error)
}

func TestSetTaskDone_DefaultsToTrue(t *testing.T) {
	d, s := newDispatcher(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.Task{
		UserID: 1, Title: "Chore", Category: "Home", Date: "2024-01-10",
	})
	require.NoError(t, err)

	result := dispatch(t, d, 1, "set_task_done", `{"id": "`+task.ID+`"}`)
	assert.True(t, result.OK)

	got, err := s.ListTasks(ctx, 1, store.WindowAll, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Done)

	result = dispatch(t, d, 1, "set_task_done", `{"id": "`+task.ID+`", "done": false}`)
	assert.True(t, result.OK)
}

func TestListTasks_WindowsAndDefaults(t *testing.T) {
	d, s := newDispatcher(t)
	ctx := context.Background()

	for _, date := range []string{"2024-01-09", "2024-01-10", "2024-01-11"} {
		_, err := s.CreateTask(ctx, model.Task{
			UserID: 1, Title: "On " + date, Category: "Work", Date: date,
		})
		require.NoError(t, err)
	}

	result := dispatch(t, d, 1, "list_tasks",
		`{"window": "today", "anchor_date": "2024-01-10"}`)
	require.True(t, result.OK, result.Error)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "On 2024-01-10", result.Tasks[0].Title)

	// Missing args mean the full list.
	result = dispatch(t, d, 1, "list_tasks", `{}`)
	require.True(t, result.OK, result.Error)
	assert.Len(t, result.Tasks, 3)

	// Unknown selectors fall back to all rather than failing.
	result = dispatch(t, d, 1, "list_tasks", `{"window": "fortnight"}`)
	require.True(t, result.OK, result.Error)
	assert.Len(t, result.Tasks, 3)
}

func TestResult_JSONShape(t *testing.T) {
	result := tools.Result{Error: "Task not found or not owned by user."}

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(result.JSON(), &decoded))
	assert.Equal(t, false, decoded["ok"])
	assert.Equal(t, "Task not found or not owned by user.", decoded["error"])
	assert.NotContains(t, decoded, "task")
}
