package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripkit/tripkit-api/internal/domain"
)

// TaskStore defines the interface for persisting task state.
type TaskStore interface {
	// Create initializes durable state for a new pending task.
	Create(ctx context.Context, task *domain.Task) error

	// SetTerminal transitions a task to SUCCESS or FAILURE with the given
	// result payload. It returns ErrInvalidTransition if the task is
	// already terminal and ErrNotFound if it was never created.
	SetTerminal(ctx context.Context, taskID string, status domain.TaskStatus, result json.RawMessage) error

	// Get retrieves a task's current state. Returns ErrNotFound when the
	// task is unknown to both the durable store and the fallback cache.
	Get(ctx context.Context, taskID string) (*domain.Task, error)
}

// taskKeyPrefix is the key family for task hashes: task:{task_id}.
const taskKeyPrefix = "task:"

// setTerminalScript performs the PENDING -> terminal transition as a single
// atomic check-and-set so concurrent executors cannot both win and readers
// never observe a partially written record.
//
// Returns 1 on success, 0 if the task is already terminal, -1 if the task
// hash does not exist.
var setTerminalScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return -1
end
if status ~= 'PENDING' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'result', ARGV[2], 'completed_at', ARGV[3])
return 1
`)

// RedisTaskStore implements TaskStore on a Redis hash per task, with a
// bounded in-process cache used as a read-through fallback when Redis is
// transiently unreachable.
type RedisTaskStore struct {
	rdb      *redis.Client
	logger   *slog.Logger
	fallback *taskCache
}

// NewRedisTaskStore creates a RedisTaskStore with the given fallback cache
// capacity.
func NewRedisTaskStore(rdb *redis.Client, cacheSize int, logger *slog.Logger) *RedisTaskStore {
	return &RedisTaskStore{
		rdb:      rdb,
		logger:   logger,
		fallback: newTaskCache(cacheSize),
	}
}

func taskKey(taskID string) string {
	return taskKeyPrefix + taskID
}

// Create initializes the task hash with PENDING status.
func (s *RedisTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	err := s.rdb.HSet(ctx, taskKey(task.ID),
		"status", string(task.Status),
		"result", "",
		"created_at", task.CreatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to create task %s: %v", ErrUnavailable, task.ID, err)
	}

	s.fallback.put(task)
	return nil
}

// SetTerminal atomically moves a pending task to the given terminal state.
func (s *RedisTaskStore) SetTerminal(ctx context.Context, taskID string, status domain.TaskStatus, result json.RawMessage) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidTaskStatus, status)
	}

	completedAt := time.Now().UTC()
	outcome, err := setTerminalScript.Run(ctx, s.rdb,
		[]string{taskKey(taskID)},
		string(status), string(result), completedAt.Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: failed to finalize task %s: %v", ErrUnavailable, taskID, err)
	}

	switch outcome {
	case 1:
		s.fallback.finalize(taskID, status, result, completedAt)
		return nil
	case 0:
		return fmt.Errorf("%w: task %s", ErrInvalidTransition, taskID)
	default:
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
}

// Get reads the task hash from Redis, falling back to the in-process cache
// only when Redis is unreachable.
func (s *RedisTaskStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	fields, err := s.rdb.HGetAll(ctx, taskKey(taskID)).Result()
	if err != nil {
		if task, ok := s.fallback.get(taskID); ok {
			s.logger.Warn("serving task state from fallback cache",
				"task_id", taskID,
				"error", err)
			return task, nil
		}
		return nil, fmt.Errorf("%w: failed to read task %s: %v", ErrUnavailable, taskID, err)
	}

	// HGETALL returns an empty map for a missing key.
	if len(fields) == 0 {
		if task, ok := s.fallback.get(taskID); ok {
			return task, nil
		}
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	return taskFromFields(taskID, fields)
}

// taskFromFields reconstructs a domain.Task from its Redis hash fields.
func taskFromFields(taskID string, fields map[string]string) (*domain.Task, error) {
	task := &domain.Task{
		ID:     taskID,
		Status: domain.TaskStatus(fields["status"]),
	}
	if !task.Status.IsValid() {
		return nil, fmt.Errorf("%w: task %s has status %q", domain.ErrInvalidTaskStatus, taskID, fields["status"])
	}

	if raw := fields["result"]; raw != "" {
		task.Result = json.RawMessage(raw)
	}
	if v := fields["created_at"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			task.CreatedAt = ts
		}
	}
	if v := fields["completed_at"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			task.CompletedAt = ts
		}
	}

	return task, nil
}

// taskCache is a bounded, best-effort mirror of recently written task
// state. It exists purely for availability when Redis is down; it is not
// shared between processes and must never be treated as the source of
// truth.
type taskCache struct {
	mu         sync.RWMutex
	maxEntries int
	entries    map[string]domain.Task
	order      []string
}

func newTaskCache(maxEntries int) *taskCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &taskCache{
		maxEntries: maxEntries,
		entries:    make(map[string]domain.Task),
	}
}

func (c *taskCache) put(task *domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[task.ID]; !exists {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, task.ID)
	}
	c.entries[task.ID] = *task
}

// finalize applies a terminal transition to the cached entry, preserving
// the original creation timestamp when the entry is still cached.
func (c *taskCache) finalize(taskID string, status domain.TaskStatus, result []byte, completedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.entries[taskID]
	if !ok {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, taskID)
		task = domain.Task{ID: taskID}
	}
	task.Status = status
	task.Result = result
	task.CompletedAt = completedAt
	c.entries[taskID] = task
}

func (c *taskCache) get(taskID string) (*domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.entries[taskID]
	if !ok {
		return nil, false
	}
	copied := task
	return &copied, true
}
