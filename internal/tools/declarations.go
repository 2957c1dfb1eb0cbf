package tools

import (
	"encoding/json"

	"github.com/taskchat/taskchat/internal/llm"
)

// Function declarations exposed to the model. Parameters are plain JSON
// schema objects, matching the generateContent tool format.

var addTaskDecl = llm.FunctionDeclaration{
	Name: string(OpAddTask),
	Description: "Create a task for the current user. " +
		"Date must be YYYY-MM-DD; time HH:MM. Date defaults to today.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Short task title"},
			"description": {"type": "string", "description": "What the task involves"},
			"category": {"type": "string", "description": "Category label, e.g. Work or Personal"},
			"date": {"type": "string", "description": "Due date, YYYY-MM-DD"},
			"time": {"type": "string", "description": "Due time, HH:MM"},
			"priority": {"type": "string", "enum": ["Low", "Medium", "High"], "description": "Defaults to Medium"},
			"links": {"type": "string", "description": "Optional related links"}
		},
		"required": ["title", "description", "category"]
	}`),
}

var editTaskDecl = llm.FunctionDeclaration{
	Name: string(OpEditTask),
	Description: "Edit fields of a task owned by the current user. " +
		"Only the provided fields change.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Task id"},
			"title": {"type": "string"},
			"description": {"type": "string"},
			"category": {"type": "string"},
			"date": {"type": "string", "description": "New due date, YYYY-MM-DD"},
			"time": {"type": "string", "description": "New due time, HH:MM"},
			"priority": {"type": "string", "enum": ["Low", "Medium", "High"]},
			"links": {"type": "string"}
		},
		"required": ["id"]
	}`),
}

var rescheduleTaskDecl = llm.FunctionDeclaration{
	Name: string(OpRescheduleTask),
	Description: "Move a task to a new date and time. " +
		"Rescheduling reopens a completed task.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Task id"},
			"date": {"type": "string", "description": "New date, YYYY-MM-DD"},
			"time": {"type": "string", "description": "New time, HH:MM"}
		},
		"required": ["id", "date", "time"]
	}`),
}

var deleteTaskDecl = llm.FunctionDeclaration{
	Name:        string(OpDeleteTask),
	Description: "Delete a task owned by the current user.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Task id"}
		},
		"required": ["id"]
	}`),
}

var setTaskDoneDecl = llm.FunctionDeclaration{
	Name:        string(OpSetTaskDone),
	Description: "Mark a task done or not done. done defaults to true.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Task id"},
			"done": {"type": "boolean", "description": "Defaults to true"}
		},
		"required": ["id"]
	}`),
}

var listTasksDecl = llm.FunctionDeclaration{
	Name: string(OpListTasks),
	Description: "List the current user's tasks, ordered by date. " +
		"window selects all tasks, one day, or the Monday-start week around anchor_date.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"window": {"type": "string", "enum": ["all", "today", "week"], "description": "Defaults to all"},
			"anchor_date": {"type": "string", "description": "Anchor date, YYYY-MM-DD; defaults to today"}
		}
	}`),
}
