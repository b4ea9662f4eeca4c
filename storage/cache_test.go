package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"taskdash-api/domain"
)

type stubBackend struct {
	createTaskFn   func(ctx context.Context, fields domain.TaskFields) (domain.Task, error)
	getTaskFn      func(ctx context.Context, id string) (domain.Task, bool, error)
	listTasksFn    func(ctx context.Context) ([]domain.Task, error)
	updateTaskFn   func(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error)
	completeTaskFn func(ctx context.Context, id string) (domain.Task, bool, error)
	deleteTaskFn   func(ctx context.Context, id string) (bool, error)
}

func (s *stubBackend) CreateTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	if s.createTaskFn == nil {
		return domain.Task{}, errors.New("unexpected CreateTask call")
	}
	return s.createTaskFn(ctx, fields)
}

func (s *stubBackend) GetTask(ctx context.Context, id string) (domain.Task, bool, error) {
	if s.getTaskFn == nil {
		return domain.Task{}, false, errors.New("unexpected GetTask call")
	}
	return s.getTaskFn(ctx, id)
}

func (s *stubBackend) ListTasks(ctx context.Context) ([]domain.Task, error) {
	if s.listTasksFn == nil {
		return nil, errors.New("unexpected ListTasks call")
	}
	return s.listTasksFn(ctx)
}

func (s *stubBackend) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	if s.updateTaskFn == nil {
		return domain.Task{}, false, errors.New("unexpected UpdateTask call")
	}
	return s.updateTaskFn(ctx, id, patch)
}

func (s *stubBackend) CompleteTask(ctx context.Context, id string) (domain.Task, bool, error) {
	if s.completeTaskFn == nil {
		return domain.Task{}, false, errors.New("unexpected CompleteTask call")
	}
	return s.completeTaskFn(ctx, id)
}

func (s *stubBackend) DeleteTask(ctx context.Context, id string) (bool, error) {
	if s.deleteTaskFn == nil {
		return false, errors.New("unexpected DeleteTask call")
	}
	return s.deleteTaskFn(ctx, id)
}

func (s *stubBackend) TasksByDate(ctx context.Context, date string) ([]domain.Task, error) {
	return nil, errors.New("unexpected TasksByDate call")
}

func (s *stubBackend) TasksByCategory(ctx context.Context, category domain.Category) ([]domain.Task, error) {
	return nil, errors.New("unexpected TasksByCategory call")
}

func (s *stubBackend) TasksByPriority(ctx context.Context, priority domain.Priority) ([]domain.Task, error) {
	return nil, errors.New("unexpected TasksByPriority call")
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheListTasksMissThenHit(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	expected := []domain.Task{{ID: "t1", Title: "Write code", Priority: domain.PriorityHigh, Category: domain.CategoryWork}}

	var calls int
	cache := NewCache(&stubBackend{
		listTasksFn: func(context.Context) ([]domain.Task, error) {
			calls++
			return append([]domain.Task(nil), expected...), nil
		},
	}, client, time.Minute)

	tasks, err := cache.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if !reflect.DeepEqual(tasks, expected) {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(listCacheKey); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list cached tasks: %v", err)
	}
	if !reflect.DeepEqual(cached, expected) {
		t.Fatalf("unexpected cached tasks: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached fetch to avoid backend, calls=%d", calls)
	}
}

func TestCacheEvictsOnWrites(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	task := domain.Task{ID: "t1", Title: "initial"}
	cache := NewCache(&stubBackend{
		listTasksFn: func(context.Context) ([]domain.Task, error) {
			return []domain.Task{task}, nil
		},
		createTaskFn: func(_ context.Context, f domain.TaskFields) (domain.Task, error) {
			return domain.Task{ID: "t2", Title: f.Title}, nil
		},
		completeTaskFn: func(_ context.Context, id string) (domain.Task, bool, error) {
			return domain.Task{ID: id, Completed: true}, true, nil
		},
		deleteTaskFn: func(context.Context, string) (bool, error) { return true, nil },
	}, client, time.Minute)

	warm := func(step string) {
		if _, err := cache.ListTasks(ctx); err != nil {
			t.Fatalf("%s: warm list: %v", step, err)
		}
		if !mr.Exists(listCacheKey) {
			t.Fatalf("%s: expected list to be cached", step)
		}
	}

	warm("create")
	if _, err := cache.CreateTask(ctx, domain.TaskFields{Title: "new"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(listCacheKey) {
		t.Fatal("create did not evict cached list")
	}

	warm("complete")
	if _, _, err := cache.CompleteTask(ctx, "t1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if mr.Exists(listCacheKey) {
		t.Fatal("complete did not evict cached list")
	}

	warm("delete")
	if _, err := cache.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(listCacheKey) {
		t.Fatal("delete did not evict cached list")
	}
}

func TestCacheUpdateMissDoesNotEvict(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache := NewCache(&stubBackend{
		listTasksFn: func(context.Context) ([]domain.Task, error) {
			return []domain.Task{{ID: "t1"}}, nil
		},
		updateTaskFn: func(context.Context, string, domain.TaskPatch) (domain.Task, bool, error) {
			return domain.Task{}, false, nil
		},
	}, client, time.Minute)

	if _, err := cache.ListTasks(ctx); err != nil {
		t.Fatalf("warm list: %v", err)
	}
	if _, found, err := cache.UpdateTask(ctx, "missing", domain.TaskPatch{}); err != nil || found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	if !mr.Exists(listCacheKey) {
		t.Fatal("update miss should leave cached list intact")
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	if err := mr.Set(listCacheKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	var calls int
	cache := NewCache(&stubBackend{
		listTasksFn: func(context.Context) ([]domain.Task, error) {
			calls++
			return []domain.Task{{ID: "t1"}}, nil
		},
	}, client, time.Minute)

	tasks, err := cache.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || calls != 1 {
		t.Fatalf("expected fallback to backend, tasks=%d calls=%d", len(tasks), calls)
	}
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	ctx := context.Background()

	var calls int
	cache := NewCache(&stubBackend{
		listTasksFn: func(context.Context) ([]domain.Task, error) {
			calls++
			return nil, nil
		},
	}, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.ListTasks(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected every call to hit backend, got %d", calls)
	}
}
