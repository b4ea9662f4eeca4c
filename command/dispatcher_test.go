package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"taskdash-api/domain"
	"taskdash-api/stats"
	"taskdash-api/storage"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	logger := log.New()
	return NewDispatcher(store, 0, logger), store
}

func mustExecute(t *testing.T, d *Dispatcher, line string) domain.CommandResult {
	t.Helper()
	result, err := d.Execute(context.Background(), line)
	if err != nil {
		t.Fatalf("execute %q: %v", line, err)
	}
	return result
}

func TestExecuteAddTask(t *testing.T) {
	d, store := newTestDispatcher(t)

	result := mustExecute(t, d, `add-task "Fix bug" --priority=high --category=work`)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Message != `TASK CREATED: "Fix bug"` {
		t.Fatalf("unexpected message: %q", result.Message)
	}

	tasks, _ := store.ListTasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task in store, got %d", len(tasks))
	}
	if tasks[0].Priority != domain.PriorityHigh || tasks[0].Category != domain.CategoryWork {
		t.Fatalf("unexpected task: %+v", tasks[0])
	}
}

func TestExecuteAddTaskWithoutTitle(t *testing.T) {
	d, store := newTestDispatcher(t)

	result := mustExecute(t, d, "add-task --priority=high")
	if result.Success || result.Message != "Task title is required" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if tasks, _ := store.ListTasks(context.Background()); len(tasks) != 0 {
		t.Fatal("store changed by failed add-task")
	}
}

func TestExecuteCompleteTask(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx := context.Background()
	created, _ := store.CreateTask(ctx, domain.TaskFields{Title: "Walk"})

	result := mustExecute(t, d, "complete-task "+created.ID)
	if !result.Success || result.Message != `TASK COMPLETED: "Walk"` {
		t.Fatalf("unexpected result: %+v", result)
	}
	task, _, _ := store.GetTask(ctx, created.ID)
	if !task.Completed {
		t.Fatal("task not completed in store")
	}

	// Idempotent: a second completion succeeds the same way.
	again := mustExecute(t, d, "complete-task "+created.ID)
	if !again.Success {
		t.Fatalf("second completion failed: %+v", again)
	}
}

func TestExecuteCompleteTaskNotFound(t *testing.T) {
	d, store := newTestDispatcher(t)
	store.CreateTask(context.Background(), domain.TaskFields{Title: "keep"})

	result := mustExecute(t, d, "complete-task 9999")
	if result.Success || result.Message != "Task not found" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if tasks, _ := store.ListTasks(context.Background()); len(tasks) != 1 || tasks[0].Completed {
		t.Fatal("store changed by failed complete-task")
	}
}

func TestExecuteCompleteTaskMissingID(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result := mustExecute(t, d, "complete-task")
	if result.Success || result.Message != "Task ID is required" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteDeleteTask(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx := context.Background()
	created, _ := store.CreateTask(ctx, domain.TaskFields{Title: "Old"})

	result := mustExecute(t, d, "delete-task "+created.ID)
	if !result.Success || result.Message != `TASK DELETED: "Old"` {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, found, _ := store.GetTask(ctx, created.ID); found {
		t.Fatal("task still present after delete")
	}

	missing := mustExecute(t, d, "delete-task "+created.ID)
	if missing.Success || missing.Message != "Task not found" {
		t.Fatalf("unexpected result for repeated delete: %+v", missing)
	}
}

func TestExecuteListTasksFilters(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx := context.Background()
	today := time.Now().Format(domain.DateFormat)

	dueToday, _ := store.CreateTask(ctx, domain.TaskFields{Title: "due today", DueDate: today})
	done, _ := store.CreateTask(ctx, domain.TaskFields{Title: "done"})
	store.CompleteTask(ctx, done.ID)
	store.CreateTask(ctx, domain.TaskFields{Title: "someday"})

	cases := []struct {
		line  string
		count int
	}{
		{"list-tasks", 3},
		{"list-tasks --filter=today", 1},
		{"list-tasks --filter=completed", 1},
		{"list-tasks --filter=pending", 2},
		{"list-tasks --filter=bogus", 3},
	}
	for _, c := range cases {
		result := mustExecute(t, d, c.line)
		if !result.Success {
			t.Fatalf("%q failed: %+v", c.line, result)
		}
		tasks, ok := result.Data.([]domain.Task)
		if !ok {
			t.Fatalf("%q: unexpected payload type %T", c.line, result.Data)
		}
		if len(tasks) != c.count {
			t.Fatalf("%q: expected %d tasks, got %d", c.line, c.count, len(tasks))
		}
		if !strings.Contains(result.Message, "DISPLAYING") {
			t.Fatalf("%q: unexpected message %q", c.line, result.Message)
		}
	}

	todayResult := mustExecute(t, d, "list-tasks --filter=today")
	if tasks := todayResult.Data.([]domain.Task); tasks[0].ID != dueToday.ID {
		t.Fatalf("today filter returned wrong task: %+v", tasks[0])
	}
}

func TestExecuteShowStats(t *testing.T) {
	d, store := newTestDispatcher(t)
	ctx := context.Background()

	empty := mustExecute(t, d, "show-stats")
	if summary := empty.Data.(stats.Summary); summary != (stats.Summary{}) {
		t.Fatalf("expected all-zero summary, got %+v", summary)
	}

	for i := 0; i < 3; i++ {
		store.CreateTask(ctx, domain.TaskFields{Title: "pending", Priority: domain.PriorityLow})
	}
	for i := 0; i < 2; i++ {
		created, _ := store.CreateTask(ctx, domain.TaskFields{Title: "done", Priority: domain.PriorityHigh})
		store.CompleteTask(ctx, created.ID)
	}

	result := mustExecute(t, d, "show-stats")
	if !result.Success || result.Message != "TASK STATISTICS GENERATED" {
		t.Fatalf("unexpected result: %+v", result)
	}
	summary := result.Data.(stats.Summary)
	if summary.Total != 5 || summary.Completed != 2 || summary.Pending != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ByPriority.High != 2 || summary.ByPriority.Low != 3 {
		t.Fatalf("unexpected priority breakdown: %+v", summary.ByPriority)
	}
}

func TestExecuteHelp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result := mustExecute(t, d, "help")
	if !result.Success || !strings.Contains(result.Message, "AVAILABLE COMMANDS") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result := mustExecute(t, d, "frobnicate now")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Message, "frobnicate") || !strings.Contains(result.Message, "help") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestExecuteBlankLine(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("expected ErrEmptyCommand, got %v", err)
	}
	if len(d.History()) != 0 {
		t.Fatal("blank input must not be recorded")
	}
}

func TestHistoryRecordingAndClear(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.now = func() time.Time { return time.Date(2024, 8, 15, 13, 37, 42, 0, time.UTC) }

	mustExecute(t, d, "help")
	mustExecute(t, d, "frobnicate")

	entries := d.History()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Command != "help" || !entries[0].Result.Success {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Command != "frobnicate" || entries[1].Result.Success {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].Timestamp != "13:37:42" {
		t.Fatalf("unexpected timestamp: %q", entries[0].Timestamp)
	}

	result := mustExecute(t, d, "clear")
	if !result.Success || result.Message != "COMMAND HISTORY CLEARED" {
		t.Fatalf("unexpected result: %+v", result)
	}
	// clear itself is recorded after wiping the scrollback.
	entries = d.History()
	if len(entries) != 1 || entries[0].Command != "clear" {
		t.Fatalf("unexpected history after clear: %+v", entries)
	}
}

func TestHistoryBounded(t *testing.T) {
	store := storage.NewMemory()
	d := NewDispatcher(store, 3, log.New())

	for i := 0; i < 5; i++ {
		mustExecute(t, d, "help")
	}
	mustExecute(t, d, "show-stats")

	entries := d.History()
	if len(entries) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(entries))
	}
	if entries[2].Command != "show-stats" {
		t.Fatalf("expected newest entry last, got %+v", entries[2])
	}
}

type failingStore struct{}

func (failingStore) CreateTask(context.Context, domain.TaskFields) (domain.Task, error) {
	return domain.Task{}, errors.New("storage unavailable")
}

func (failingStore) GetTask(context.Context, string) (domain.Task, bool, error) {
	return domain.Task{}, false, errors.New("storage unavailable")
}

func (failingStore) ListTasks(context.Context) ([]domain.Task, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStore) CompleteTask(context.Context, string) (domain.Task, bool, error) {
	return domain.Task{}, false, errors.New("storage unavailable")
}

func (failingStore) DeleteTask(context.Context, string) (bool, error) {
	return false, errors.New("storage unavailable")
}

func TestExecuteSurfacesStorageErrors(t *testing.T) {
	d := NewDispatcher(failingStore{}, 0, log.New())

	for _, line := range []string{`add-task "x"`, "complete-task 1", "delete-task 1", "list-tasks", "show-stats"} {
		result := mustExecute(t, d, line)
		if result.Success {
			t.Fatalf("%q: expected failure", line)
		}
		if result.Message != "storage unavailable" {
			t.Fatalf("%q: unexpected message %q", line, result.Message)
		}
	}
}
