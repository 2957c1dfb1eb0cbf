// Package agent drives one chat turn end to end: task snapshot, system
// instruction, the bounded model/tool-calling loop, and session bookkeeping.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taskchat/taskchat/internal/llm"
	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/session"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/timeutil"
	"github.com/taskchat/taskchat/internal/tools"
)

// DefaultMaxToolRounds bounds automatic tool dispatch within one user turn.
const DefaultMaxToolRounds = 5

// budgetExhaustedReply is the terminal reply when a turn runs out of tool
// rounds before the model produces final text.
const budgetExhaustedReply = "I had to stop before finishing. That request " +
	"needed too many task operations in one message. Please try again with a " +
	"smaller step."

// Sentinel errors distinguishing the two upstream failure classes. A
// snapshot failure means the model was never invoked for the turn.
var (
	ErrSnapshotFailed = errors.New("task snapshot unavailable")
	ErrBackendFailed  = errors.New("model backend failure")
)

// Orchestrator composes the model backend, the tool dispatcher, the task
// store, and per-user sessions.
type Orchestrator struct {
	client        llm.Client
	dispatcher    *tools.Dispatcher
	store         store.TaskStore
	sessions      *session.Manager
	logger        *zap.Logger
	maxToolRounds int
}

// New creates an orchestrator. maxToolRounds <= 0 falls back to
// DefaultMaxToolRounds.
func New(
	client llm.Client,
	dispatcher *tools.Dispatcher,
	taskStore store.TaskStore,
	sessions *session.Manager,
	logger *zap.Logger,
	maxToolRounds int,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}
	return &Orchestrator{
		client:        client,
		dispatcher:    dispatcher,
		store:         taskStore,
		sessions:      sessions,
		logger:        logger,
		maxToolRounds: maxToolRounds,
	}
}

// HandleMessage processes one inbound chat message for userID and returns
// the assistant's reply. The user's session lock is held for the whole
// turn, so concurrent messages for the same user serialize.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID int64, message string) (string, error) {
	sess, release := o.sessions.Acquire(userID)
	defer release()

	tasks, err := o.store.ListTasks(ctx, userID, store.WindowAll, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}

	system := buildSystemInstruction(time.Now(), tasks)

	sess.Append(session.RoleUser, message)

	reply, err := o.runToolLoop(ctx, userID, system, historyContents(sess.Turns()))
	if err != nil {
		// The user turn stays in history; the next message retries
		// against a fresh backend call.
		return "", fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}

	sess.Append(session.RoleAssistant, reply)
	return reply, nil
}

// runToolLoop submits the conversation with the six tools and dispatches
// function calls until the model emits final text or the round budget is
// spent. Budget exhaustion is a terminal state with a defined reply, not
// whatever partial text the backend holds.
func (o *Orchestrator) runToolLoop(
	ctx context.Context,
	userID int64,
	system string,
	contents []llm.Content,
) (string, error) {
	req := &llm.Request{
		SystemInstruction: &llm.Content{Parts: []llm.Part{{Text: system}}},
		Tools: []llm.Tool{
			{FunctionDeclarations: o.dispatcher.Declarations()},
		},
	}

	rounds := 0
	for {
		req.Contents = contents
		resp, err := o.client.GenerateContent(ctx, req)
		if err != nil {
			return "", err
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}
		if rounds >= o.maxToolRounds {
			o.logger.Warn("tool budget exhausted",
				zap.Int64("user_id", userID),
				zap.Int("rounds", rounds),
			)
			return budgetExhaustedReply, nil
		}
		rounds++

		// Echo the model's tool-call content, then feed each result back.
		if len(resp.Candidates) > 0 {
			contents = append(contents, resp.Candidates[0].Content)
		}

		responseParts := make([]llm.Part, 0, len(calls))
		for _, call := range calls {
			result := o.dispatcher.Dispatch(ctx, userID, call.Name, call.Args)
			o.logger.Debug("dispatched tool call",
				zap.Int64("user_id", userID),
				zap.String("tool", call.Name),
				zap.Bool("ok", result.OK),
			)
			responseParts = append(responseParts, llm.Part{
				FunctionResponse: &llm.FunctionResponse{
					Name:     call.Name,
					Response: result.JSON(),
				},
			})
		}
		contents = append(contents, llm.Content{
			Role:  llm.RoleUser,
			Parts: responseParts,
		})
	}
}

// historyContents converts session turns into wire contents. Tool traffic
// is never stored in sessions, so this is a plain text mapping.
func historyContents(turns []session.Turn) []llm.Content {
	contents := make([]llm.Content, 0, len(turns))
	for _, turn := range turns {
		role := llm.RoleUser
		if turn.Role == session.RoleAssistant {
			role = llm.RoleModel
		}
		contents = append(contents, llm.Content{
			Role:  role,
			Parts: []llm.Part{{Text: turn.Content}},
		})
	}
	return contents
}

// buildSystemInstruction composes the per-turn system prompt: today's date,
// the task snapshot, and the behavioral guidelines.
func buildSystemInstruction(now time.Time, tasks []model.Task) string {
	var sb strings.Builder

	sb.WriteString("You are a personal task assistant. ")
	sb.WriteString("Your job is to help the user add, edit, move, delete, and mark tasks done. ")
	sb.WriteString("Be short, friendly, and efficient.\n\n")

	sb.WriteString("Today's date is ")
	sb.WriteString(now.Format(timeutil.DateLayout))
	sb.WriteString(".\n")
	sb.WriteString("The user's current tasks are:\n")
	sb.WriteString(renderTaskList(tasks))
	sb.WriteString("\n\n")

	sb.WriteString("### Guidelines:\n")
	sb.WriteString("- Never ask for a task ID. Use title + date to identify tasks.\n")
	sb.WriteString("- When showing tasks, list: `<number>. Title (Date)` with a done/pending marker.\n")
	sb.WriteString("- Confirm actions clearly after completing them.\n")
	sb.WriteString("- If a task is unclear (e.g., missing date), politely ask for clarification.\n")
	sb.WriteString("- Keep replies short and conversational.\n")

	return sb.String()
}

// renderTaskList renders one summary line per task for the system prompt.
func renderTaskList(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "No tasks currently."
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		line := fmt.Sprintf("[%s] %s | %s | %s | %s %s | Priority: %s | Done: %v",
			t.ID, t.Title, t.Description, t.Category,
			t.Date, timeutil.RenderTime(t.Time),
			t.Priority, t.Done,
		)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
