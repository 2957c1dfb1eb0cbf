package model

import "time"

// Priority levels. Stored as plain text so the value round-trips unchanged
// through prompts and tool calls.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task is a single scheduled item owned by exactly one user. Date is the
// canonical YYYY-MM-DD calendar day; Time, when present, is canonical HH:MM.
type Task struct {
	ID          string    `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Date        string    `json:"date" db:"date"`
	Time        *string   `json:"time,omitempty" db:"time"`
	Priority    string    `json:"priority" db:"priority"`
	Links       *string   `json:"links,omitempty" db:"links"`
	Done        bool      `json:"done" db:"done"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
