// Package tools binds the task operations the model may invoke to the task
// store, enforcing ownership scoping and argument validation.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskchat/taskchat/internal/llm"
	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/timeutil"
)

// Op enumerates the operations exposed to the model. The registry maps each
// kind to a typed handler so dispatch is exhaustive rather than
// reflection-based.
type Op string

const (
	OpAddTask        Op = "add_task"
	OpEditTask       Op = "edit_task"
	OpRescheduleTask Op = "reschedule_task"
	OpDeleteTask     Op = "delete_task"
	OpSetTaskDone    Op = "set_task_done"
	OpListTasks      Op = "list_tasks"
)

// ops is the stable dispatch/declaration order.
var ops = []Op{
	OpAddTask, OpEditTask, OpRescheduleTask,
	OpDeleteTask, OpSetTaskDone, OpListTasks,
}

const msgNotFound = "Task not found or not owned by user."

// Result is what a tool invocation hands back to the model. Failures are
// data, never raised errors, so the model can react to them in text.
type Result struct {
	OK    bool         `json:"ok"`
	Task  *model.Task  `json:"task,omitempty"`
	Tasks []model.Task `json:"tasks,omitempty"`
	Error string       `json:"error,omitempty"`
}

// JSON renders the result for a function response part.
func (r Result) JSON() json.RawMessage {
	data, err := json.Marshal(r)
	if err != nil {
		return json.RawMessage(`{"ok": false, "error": "internal encoding failure"}`)
	}
	return data
}

func failure(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

type handlerFunc func(ctx context.Context, userID int64, args json.RawMessage) Result

type handler struct {
	decl llm.FunctionDeclaration
	run  handlerFunc
}

// Dispatcher is the registry of task operations, scoped per call to the
// session's owning user.
type Dispatcher struct {
	store    store.TaskStore
	logger   *zap.Logger
	handlers map[Op]handler
}

// NewDispatcher builds the registry over the given store.
func NewDispatcher(s store.TaskStore, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{store: s, logger: logger}
	d.handlers = map[Op]handler{
		OpAddTask:        {decl: addTaskDecl, run: d.addTask},
		OpEditTask:       {decl: editTaskDecl, run: d.editTask},
		OpRescheduleTask: {decl: rescheduleTaskDecl, run: d.rescheduleTask},
		OpDeleteTask:     {decl: deleteTaskDecl, run: d.deleteTask},
		OpSetTaskDone:    {decl: setTaskDoneDecl, run: d.setTaskDone},
		OpListTasks:      {decl: listTasksDecl, run: d.listTasks},
	}
	return d
}

// Declarations returns the function declarations for the model request, in
// stable order.
func (d *Dispatcher) Declarations() []llm.FunctionDeclaration {
	decls := make([]llm.FunctionDeclaration, 0, len(ops))
	for _, op := range ops {
		decls = append(decls, d.handlers[op].decl)
	}
	return decls
}

// Dispatch runs the named operation for userID. Unknown names and bad
// arguments come back as failure results, not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, name string, args json.RawMessage) Result {
	h, ok := d.handlers[Op(name)]
	if !ok {
		return failure("unknown tool: %s", name)
	}
	result := h.run(ctx, userID, args)
	if result.Error != "" {
		d.logger.Debug("tool call failed",
			zap.String("tool", name),
			zap.Int64("user_id", userID),
			zap.String("reason", result.Error),
		)
	}
	return result
}

// normalizeDate wraps timeutil.NormalizeDate, logging when unparseable
// input silently coerces to today. The lenient fallback is kept for
// compatibility with the tool contract.
func (d *Dispatcher) normalizeDate(userID int64, input string) string {
	date, fallback := timeutil.NormalizeDate(input)
	if fallback && input != "" {
		d.logger.Warn("unparseable date defaulted to today",
			zap.Int64("user_id", userID),
			zap.String("input", input),
		)
	}
	return date
}

// normalizedTime converts raw time text into the stored representation:
// nil when absent.
func normalizedTime(input string) *string {
	hhmm, ok := timeutil.NormalizeTime(input)
	if !ok {
		return nil
	}
	return &hhmm
}

type addTaskParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Priority    string `json:"priority"`
	Links       string `json:"links"`
}

func (d *Dispatcher) addTask(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p addTaskParams
	if err := json.Unmarshal(args, &p); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if p.Title == "" || p.Description == "" || p.Category == "" {
		return failure("title, description and category are required")
	}

	task := model.Task{
		UserID:      userID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Date:        d.normalizeDate(userID, p.Date),
		Time:        normalizedTime(p.Time),
		Priority:    p.Priority,
	}
	if p.Links != "" {
		task.Links = &p.Links
	}

	created, err := d.store.CreateTask(ctx, task)
	if err != nil {
		return failure("creating task: %v", err)
	}
	return Result{OK: true, Task: created}
}

type editTaskParams struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Priority    *string `json:"priority"`
	Links       *string `json:"links"`
}

func (d *Dispatcher) editTask(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p editTaskParams
	if err := json.Unmarshal(args, &p); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if p.ID == "" {
		return failure("id is required")
	}

	patch := store.TaskPatch{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Priority:    p.Priority,
		Links:       p.Links,
	}
	if p.Date != nil {
		date := d.normalizeDate(userID, *p.Date)
		patch.Date = &date
	}
	if p.Time != nil {
		if tm := normalizedTime(*p.Time); tm != nil {
			patch.Time = tm
		} else {
			// Unusable time text clears the stored value.
			empty := ""
			patch.Time = &empty
		}
	}

	task, err := d.store.UpdateTask(ctx, userID, p.ID, patch)
	switch {
	case errors.Is(err, store.ErrNoFields):
		return failure("No fields to update.")
	case errors.Is(err, store.ErrNotFound):
		return failure(msgNotFound)
	case err != nil:
		return failure("updating task: %v", err)
	}
	return Result{OK: true, Task: task}
}

type rescheduleTaskParams struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

func (d *Dispatcher) rescheduleTask(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p rescheduleTaskParams
	if err := json.Unmarshal(args, &p); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if p.ID == "" || p.Date == "" || p.Time == "" {
		return failure("id, date and time are required")
	}

	date := d.normalizeDate(userID, p.Date)
	task, err := d.store.RescheduleTask(ctx, userID, p.ID, date, normalizedTime(p.Time))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return failure(msgNotFound)
	case err != nil:
		return failure("rescheduling task: %v", err)
	}
	return Result{OK: true, Task: task}
}

type deleteTaskParams struct {
	ID string `json:"id"`
}

func (d *Dispatcher) deleteTask(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p deleteTaskParams
	if err := json.Unmarshal(args, &p); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if p.ID == "" {
		return failure("id is required")
	}

	deleted, err := d.store.DeleteTask(ctx, userID, p.ID)
	if err != nil {
		return failure("deleting task: %v", err)
	}
	return Result{OK: deleted}
}

type setTaskDoneParams struct {
	ID   string `json:"id"`
	Done *bool  `json:"done"`
}

func (d *Dispatcher) setTaskDone(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p setTaskDoneParams
	if err := json.Unmarshal(args, &p); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if p.ID == "" {
		return failure("id is required")
	}
	done := true
	if p.Done != nil {
		done = *p.Done
	}

	affected, err := d.store.SetTaskDone(ctx, userID, p.ID, done)
	if err != nil {
		return failure("marking task: %v", err)
	}
	return Result{OK: affected}
}

type listTasksParams struct {
	Window     string `json:"window"`
	AnchorDate string `json:"anchor_date"`
}

func (d *Dispatcher) listTasks(ctx context.Context, userID int64, args json.RawMessage) Result {
	var p listTasksParams
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return failure("invalid arguments: %v", err)
		}
	}

	window := store.Window(p.Window)
	switch window {
	case store.WindowToday, store.WindowWeek:
	default:
		// Unknown selectors fall back to the full list.
		window = store.WindowAll
	}

	anchor := ""
	if p.AnchorDate != "" {
		anchor = d.normalizeDate(userID, p.AnchorDate)
	}

	tasks, err := d.store.ListTasks(ctx, userID, window, anchor)
	if err != nil {
		return failure("listing tasks: %v", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return Result{OK: true, Tasks: tasks}
}
