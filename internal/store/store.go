package store

import (
	"context"
	"errors"

	"github.com/taskchat/taskchat/internal/model"
)

// Window selects which slice of a user's tasks a listing returns.
type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
)

// Sentinel errors. ErrNotFound deliberately does not distinguish a missing
// task from one owned by another user, so existence never leaks across
// owners.
var (
	ErrNotFound       = errors.New("task not found or not owned by user")
	ErrNoFields       = errors.New("no fields to update")
	ErrEmailTaken     = errors.New("email already exists")
	ErrBadCredentials = errors.New("invalid email or password")
)

// TaskPatch carries the optional fields of a partial update. A nil field is
// left unchanged. A Time pointing at the empty string clears the stored
// time.
type TaskPatch struct {
	Title       *string
	Description *string
	Category    *string
	Date        *string
	Time        *string
	Priority    *string
	Links       *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Date == nil && p.Time == nil && p.Priority == nil && p.Links == nil
}

// TaskStore is the persistence contract the chat core consumes. Every
// mutation except creation is scoped by the owning user id in a single
// conditional statement, so an ownership check can never race its mutation.
type TaskStore interface {
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, userID int64, id string, patch TaskPatch) (*model.Task, error)
	RescheduleTask(ctx context.Context, userID int64, id, date string, tm *string) (*model.Task, error)
	DeleteTask(ctx context.Context, userID int64, id string) (bool, error)
	SetTaskDone(ctx context.Context, userID int64, id string, done bool) (bool, error)
	ListTasks(ctx context.Context, userID int64, window Window, anchorDate string) ([]model.Task, error)
}

// UserStore persists user accounts for signup/login.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
