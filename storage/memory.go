package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdash-api/domain"
)

// Memory is the default task store: a mutex-guarded map living for the
// lifetime of the process. Absence is reported as a value, never an error.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task

	now func() time.Time
}

// NewMemory creates an empty in-memory task store.
func NewMemory() *Memory {
	return &Memory{
		tasks: make(map[string]domain.Task),
		now:   time.Now,
	}
}

func applyDefaults(f domain.TaskFields) domain.TaskFields {
	if f.Priority == "" {
		f.Priority = domain.PriorityMedium
	}
	if f.Category == "" {
		f.Category = domain.CategoryPersonal
	}
	return f
}

// CreateTask assigns a fresh id, stamps the creation date and applies defaults
// for omitted priority/category. Title validation happens at the boundary.
func (m *Memory) CreateTask(_ context.Context, fields domain.TaskFields) (domain.Task, error) {
	fields = applyDefaults(fields)
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		Category:    fields.Category,
		DueDate:     fields.DueDate,
		Completed:   false,
		CreatedAt:   m.now().Format(domain.DateFormat),
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()
	return task, nil
}

// GetTask returns the task with the given id, or found=false.
func (m *Memory) GetTask(_ context.Context, id string) (domain.Task, bool, error) {
	m.mu.RLock()
	task, ok := m.tasks[id]
	m.mu.RUnlock()
	return task, ok, nil
}

// ListTasks returns every task sorted by priority descending, ties broken by
// due date ascending with dated tasks first.
func (m *Memory) ListTasks(_ context.Context) ([]domain.Task, error) {
	m.mu.RLock()
	tasks := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.mu.RUnlock()

	domain.SortTasks(tasks)
	return tasks, nil
}

// UpdateTask merges the patch over the stored task. ID, creation date and the
// completion flag are never touched by a patch.
func (m *Memory) UpdateTask(_ context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, false, nil
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	m.tasks[id] = task
	return task, true, nil
}

// CompleteTask marks the task done. Completing an already-completed task is a
// no-op success.
func (m *Memory) CompleteTask(_ context.Context, id string) (domain.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, false, nil
	}
	task.Completed = true
	m.tasks[id] = task
	return task, true, nil
}

// DeleteTask removes the task and reports whether it existed.
func (m *Memory) DeleteTask(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

// TasksByDate returns tasks due on the given date, in list order.
func (m *Memory) TasksByDate(ctx context.Context, date string) ([]domain.Task, error) {
	return m.filtered(func(t domain.Task) bool { return t.DueDate == date })
}

// TasksByCategory returns tasks in the given category, in list order.
func (m *Memory) TasksByCategory(ctx context.Context, category domain.Category) ([]domain.Task, error) {
	return m.filtered(func(t domain.Task) bool { return t.Category == category })
}

// TasksByPriority returns tasks with the given priority, in list order.
func (m *Memory) TasksByPriority(ctx context.Context, priority domain.Priority) ([]domain.Task, error) {
	return m.filtered(func(t domain.Task) bool { return t.Priority == priority })
}

func (m *Memory) filtered(keep func(domain.Task) bool) ([]domain.Task, error) {
	m.mu.RLock()
	tasks := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if keep(t) {
			tasks = append(tasks, t)
		}
	}
	m.mu.RUnlock()

	domain.SortTasks(tasks)
	return tasks, nil
}
