package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"taskdash-api/domain"
)

type backend interface {
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

const listCacheKey = "tasks:all"

// Cache wraps a task store with Redis-backed caching of the full task list.
// Every write evicts the cached list, so readers always observe the
// collection as of call time. Stats stay recompute-on-demand by design.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper around base using the provided Redis
// client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := c.loadListFromCache(ctx); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	c.storeList(ctx, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	task, err := c.base.CreateTask(ctx, fields)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return task, nil
}

func (c *Cache) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	task, found, err := c.base.UpdateTask(ctx, id, patch)
	if err == nil && found {
		c.evict(ctx)
	}
	return task, found, err
}

func (c *Cache) CompleteTask(ctx context.Context, id string) (domain.Task, bool, error) {
	task, found, err := c.base.CompleteTask(ctx, id)
	if err == nil && found {
		c.evict(ctx)
	}
	return task, found, err
}

func (c *Cache) DeleteTask(ctx context.Context, id string) (bool, error) {
	deleted, err := c.base.DeleteTask(ctx, id)
	if err == nil && deleted {
		c.evict(ctx)
	}
	return deleted, err
}

// Point reads and equality filters bypass the cache.

func (c *Cache) GetTask(ctx context.Context, id string) (domain.Task, bool, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) TasksByDate(ctx context.Context, date string) ([]domain.Task, error) {
	return c.base.TasksByDate(ctx, date)
}

func (c *Cache) TasksByCategory(ctx context.Context, category domain.Category) ([]domain.Task, error) {
	return c.base.TasksByCategory(ctx, category)
}

func (c *Cache) TasksByPriority(ctx context.Context, priority domain.Priority) ([]domain.Task, error) {
	return c.base.TasksByPriority(ctx, priority)
}

func (c *Cache) loadListFromCache(ctx context.Context) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, listCacheKey).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, listCacheKey).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeList(ctx context.Context, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, listCacheKey, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, listCacheKey).Result()
}
