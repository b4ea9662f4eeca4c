package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"taskdash-api/domain"
)

// All tasks share one partition: the dashboard is single-user and the
// collection is small.
const taskPartition = "task"

// Tables is an Azure Table Storage backed task store, selected when a
// connection string is configured. It honors the same contract as Memory.
type Tables struct {
	table *aztables.Client

	now func() time.Time
}

// NewTables creates a Tables store from the given connection string.
func NewTables(connStr, tableName string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{table: svc.NewClient(tableName), now: time.Now}, nil
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	Category    string `json:"Category"`
	DueDate     string `json:"DueDate"`
	Completed   bool   `json:"Completed"`
	CreatedAt   string `json:"CreatedAt"`
}

func entityFromTask(t domain.Task) taskEntity {
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: taskPartition, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Category:    domain.Category(ent.Category),
		DueDate:     ent.DueDate,
		Completed:   ent.Completed,
		CreatedAt:   ent.CreatedAt,
	}, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func (s *Tables) putTask(ctx context.Context, task domain.Task) error {
	data, err := json.Marshal(entityFromTask(task))
	if err != nil {
		return err
	}
	mode := aztables.UpdateModeReplace
	_, err = s.table.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: mode})
	return err
}

// CreateTask assigns a fresh id, stamps the creation date and applies
// defaults, then writes the entity.
func (s *Tables) CreateTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	fields = applyDefaults(fields)
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		Category:    fields.Category,
		DueDate:     fields.DueDate,
		Completed:   false,
		CreatedAt:   s.now().Format(domain.DateFormat),
	}
	if err := s.putTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask retrieves one task by id, reporting absence as found=false.
func (s *Tables) GetTask(ctx context.Context, id string) (domain.Task, bool, error) {
	resp, err := s.table.GetEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, false, nil
		}
		return domain.Task{}, false, err
	}
	task, err := decodeTaskEntity(resp.Value)
	if err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

func (s *Tables) listWithFilter(ctx context.Context, filter string) ([]domain.Task, error) {
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	domain.SortTasks(tasks)
	return tasks, nil
}

// ListTasks retrieves every task in the store's default sort order.
func (s *Tables) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.listWithFilter(ctx, "PartitionKey eq '"+taskPartition+"'")
}

// UpdateTask merges the patch over the stored entity and writes it back.
func (s *Tables) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	task, ok, err := s.GetTask(ctx, id)
	if err != nil || !ok {
		return domain.Task{}, ok, err
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
	if err := s.putTask(ctx, task); err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

// CompleteTask marks the task done, idempotently.
func (s *Tables) CompleteTask(ctx context.Context, id string) (domain.Task, bool, error) {
	task, ok, err := s.GetTask(ctx, id)
	if err != nil || !ok {
		return domain.Task{}, ok, err
	}
	task.Completed = true
	if err := s.putTask(ctx, task); err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

// DeleteTask removes the entity and reports whether it existed.
func (s *Tables) DeleteTask(ctx context.Context, id string) (bool, error) {
	_, err := s.table.DeleteEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TasksByDate returns tasks due on the given date.
func (s *Tables) TasksByDate(ctx context.Context, date string) ([]domain.Task, error) {
	return s.listWithFilter(ctx, "PartitionKey eq '"+taskPartition+"' and DueDate eq '"+date+"'")
}

// TasksByCategory returns tasks in the given category.
func (s *Tables) TasksByCategory(ctx context.Context, category domain.Category) ([]domain.Task, error) {
	return s.listWithFilter(ctx, "PartitionKey eq '"+taskPartition+"' and Category eq '"+string(category)+"'")
}

// TasksByPriority returns tasks with the given priority.
func (s *Tables) TasksByPriority(ctx context.Context, priority domain.Priority) ([]domain.Task, error) {
	return s.listWithFilter(ctx, "PartitionKey eq '"+taskPartition+"' and Priority eq '"+string(priority)+"'")
}
