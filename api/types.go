package api

import (
	"context"

	"taskdash-api/domain"
)

// Storage abstracts the task store for handlers. Absence is reported through
// the boolean, never as an error.
type Storage interface {
	CreateTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, bool, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error)
	CompleteTask(ctx context.Context, id string) (domain.Task, bool, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	TasksByDate(ctx context.Context, date string) ([]domain.Task, error)
	TasksByCategory(ctx context.Context, category domain.Category) ([]domain.Task, error)
	TasksByPriority(ctx context.Context, priority domain.Priority) ([]domain.Task, error)
}

// Terminal executes command-language lines and exposes the scrollback.
type Terminal interface {
	Execute(ctx context.Context, line string) (domain.CommandResult, error)
	History() []domain.HistoryEntry
}

// Authenticator is implemented by types able to extract user IDs from the
// Authorization header.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
