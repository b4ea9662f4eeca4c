package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"taskdash-api/domain"
	"taskdash-api/stats"
)

const (
	defaultHistoryLimit = 100
	timestampLayout     = "15:04:05"
)

// ErrEmptyCommand is returned for blank input lines; the parser is never
// invoked and no history entry is recorded.
var ErrEmptyCommand = errors.New("empty command")

// TaskStore is the slice of the task store the dispatcher needs.
type TaskStore interface {
	CreateTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, bool, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CompleteTask(ctx context.Context, id string) (domain.Task, bool, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
}

const helpText = `AVAILABLE COMMANDS:

add-task "title" [options]
  --priority=(high|medium|low)
  --category=(work|personal|health|learning)
  --due=YYYY-MM-DD

complete-task [id]    - Mark task as complete
delete-task [id]      - Delete a task
list-tasks [filter]   - List tasks (--filter=today|completed|pending)
show-stats           - Display task statistics
clear                - Clear command history
help                 - Show this help

EXAMPLES:
add-task "Fix bug" --priority=high --category=work
list-tasks --filter=today`

// Dispatcher executes parsed commands against the task store and records each
// invocation in a bounded history.
type Dispatcher struct {
	store   TaskStore
	history *history
	logger  *log.Logger

	now func() time.Time
}

// NewDispatcher creates a dispatcher over the given store. A historyLimit of
// zero or less selects the default of 100 retained entries.
func NewDispatcher(store TaskStore, historyLimit int, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Dispatcher{
		store:   store,
		history: newHistory(historyLimit),
		logger:  logger,
		now:     time.Now,
	}
}

// Execute runs one input line and returns its result. Every non-blank line
// yields exactly one CommandResult and one history entry; storage failures are
// converted into failure results, never propagated.
func (d *Dispatcher) Execute(ctx context.Context, line string) (domain.CommandResult, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return domain.CommandResult{}, ErrEmptyCommand
	}

	cmd := Parse(trimmed)
	result := d.run(ctx, cmd)

	d.history.append(domain.HistoryEntry{
		Command:   trimmed,
		Result:    result,
		Timestamp: d.now().Format(timestampLayout),
	})
	d.logger.WithFields(log.Fields{
		"action":  cmd.Action,
		"success": result.Success,
	}).Debug("terminal.command.executed")

	return result, nil
}

// History returns a copy of the retained scrollback, oldest first.
func (d *Dispatcher) History() []domain.HistoryEntry {
	return d.history.snapshot()
}

func (d *Dispatcher) run(ctx context.Context, cmd domain.ParsedCommand) domain.CommandResult {
	switch cmd.Action {
	case "help":
		return domain.CommandResult{Success: true, Message: helpText}

	case "clear":
		d.history.clear()
		return domain.CommandResult{Success: true, Message: "COMMAND HISTORY CLEARED"}

	case "add-task":
		return d.addTask(ctx, cmd)

	case "complete-task":
		return d.completeTask(ctx, cmd)

	case "delete-task":
		return d.deleteTask(ctx, cmd)

	case "list-tasks":
		return d.listTasks(ctx, cmd)

	case "show-stats":
		return d.showStats(ctx)

	default:
		return domain.CommandResult{
			Success: false,
			Message: fmt.Sprintf("Unknown command %q. Type \"help\" for available commands.", cmd.Action),
		}
	}
}

func (d *Dispatcher) addTask(ctx context.Context, cmd domain.ParsedCommand) domain.CommandResult {
	if cmd.Title == "" {
		return domain.CommandResult{Success: false, Message: "Task title is required"}
	}
	task, err := d.store.CreateTask(ctx, domain.TaskFields{
		Title:       cmd.Title,
		Description: cmd.Description,
		Priority:    cmd.Priority,
		Category:    cmd.Category,
		DueDate:     cmd.DueDate,
	})
	if err != nil {
		return failure(err)
	}
	return domain.CommandResult{Success: true, Message: fmt.Sprintf("TASK CREATED: %q", task.Title)}
}

func (d *Dispatcher) completeTask(ctx context.Context, cmd domain.ParsedCommand) domain.CommandResult {
	if cmd.TaskID == "" {
		return domain.CommandResult{Success: false, Message: "Task ID is required"}
	}
	task, found, err := d.store.GetTask(ctx, cmd.TaskID)
	if err != nil {
		return failure(err)
	}
	if !found {
		return domain.CommandResult{Success: false, Message: "Task not found"}
	}
	if _, _, err := d.store.CompleteTask(ctx, cmd.TaskID); err != nil {
		return failure(err)
	}
	return domain.CommandResult{Success: true, Message: fmt.Sprintf("TASK COMPLETED: %q", task.Title)}
}

func (d *Dispatcher) deleteTask(ctx context.Context, cmd domain.ParsedCommand) domain.CommandResult {
	if cmd.TaskID == "" {
		return domain.CommandResult{Success: false, Message: "Task ID is required"}
	}
	task, found, err := d.store.GetTask(ctx, cmd.TaskID)
	if err != nil {
		return failure(err)
	}
	if !found {
		return domain.CommandResult{Success: false, Message: "Task not found"}
	}
	if _, err := d.store.DeleteTask(ctx, cmd.TaskID); err != nil {
		return failure(err)
	}
	return domain.CommandResult{Success: true, Message: fmt.Sprintf("TASK DELETED: %q", task.Title)}
}

func (d *Dispatcher) listTasks(ctx context.Context, cmd domain.ParsedCommand) domain.CommandResult {
	tasks, err := d.store.ListTasks(ctx)
	if err != nil {
		return failure(err)
	}

	filtered := make([]domain.Task, 0, len(tasks))
	switch cmd.Filter {
	case "today":
		today := d.now().Format(domain.DateFormat)
		for _, t := range tasks {
			if t.DueDate == today {
				filtered = append(filtered, t)
			}
		}
	case "completed":
		for _, t := range tasks {
			if t.Completed {
				filtered = append(filtered, t)
			}
		}
	case "pending":
		for _, t := range tasks {
			if !t.Completed {
				filtered = append(filtered, t)
			}
		}
	default:
		// Unknown or absent filters mean no filtering.
		filtered = append(filtered, tasks...)
	}

	return domain.CommandResult{
		Success: true,
		Message: fmt.Sprintf("DISPLAYING %d TASKS", len(filtered)),
		Data:    filtered,
	}
}

func (d *Dispatcher) showStats(ctx context.Context) domain.CommandResult {
	tasks, err := d.store.ListTasks(ctx)
	if err != nil {
		return failure(err)
	}
	return domain.CommandResult{
		Success: true,
		Message: "TASK STATISTICS GENERATED",
		Data:    stats.Summarize(tasks),
	}
}

func failure(err error) domain.CommandResult {
	return domain.CommandResult{Success: false, Message: err.Error()}
}
