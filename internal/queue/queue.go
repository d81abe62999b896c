// Package queue implements the durable work queue on a Redis list. Entries
// are appended at the tail and consumed from the head, giving FIFO order
// across producer processes.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripkit/tripkit-api/internal/domain"
)

// Common errors returned by the queue.
var (
	// ErrUnavailable is returned when the queue broker cannot be reached.
	ErrUnavailable = errors.New("queue broker unavailable")

	// ErrMalformedEntry is returned when a dequeued entry cannot be
	// deserialized. The entry is already removed from the list; consumers
	// log it and move on.
	ErrMalformedEntry = errors.New("malformed queue entry")
)

// DefaultKey is the Redis list holding pending recommendation jobs.
const DefaultKey = "queue:recommendations"

// Entry is the serialized (task_id, payload) tuple stored on the list.
type Entry struct {
	TaskID  string               `json:"task_id"`
	Request domain.TravelRequest `json:"request"`
}

// Queue is the contract between the submission path and the worker pool.
type Queue interface {
	// Enqueue appends a job to the tail of the queue.
	Enqueue(ctx context.Context, taskID string, req domain.TravelRequest) error

	// PendingCount returns the number of entries currently queued.
	PendingCount(ctx context.Context) (int64, error)

	// PositionOf returns the 1-based distance of the task from the front
	// of the queue. The boolean is false when the task is not queued; an
	// already-executing or completed task is indistinguishable from one
	// that was never enqueued.
	PositionOf(ctx context.Context, taskID string) (int, bool, error)

	// Dequeue blocks up to the given timeout for the next entry. It
	// returns (nil, nil) when the timeout elapses with an empty queue.
	Dequeue(ctx context.Context, timeout time.Duration) (*Entry, error)
}

// RedisQueue implements Queue on a single named Redis list.
type RedisQueue struct {
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisQueue creates a RedisQueue on the given list key. An empty key
// selects DefaultKey.
func NewRedisQueue(rdb *redis.Client, key string, logger *slog.Logger) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{rdb: rdb, key: key, logger: logger}
}

// Enqueue serializes the job and appends it to the list tail.
func (q *RedisQueue) Enqueue(ctx context.Context, taskID string, req domain.TravelRequest) error {
	data, err := json.Marshal(Entry{TaskID: taskID, Request: req})
	if err != nil {
		return fmt.Errorf("failed to serialize queue entry for task %s: %w", taskID, err)
	}

	if err := q.rdb.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("%w: failed to enqueue task %s: %v", ErrUnavailable, taskID, err)
	}

	q.logger.Debug("job enqueued", "task_id", taskID, "queue", q.key)
	return nil
}

// PendingCount returns the current list length.
func (q *RedisQueue) PendingCount(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read queue length: %v", ErrUnavailable, err)
	}
	return n, nil
}

// PositionOf scans the list front-to-back for the task.
//
// The scan deserializes every entry, which is O(queue length) per call.
// That is fine at the target scale of hundreds of queued jobs; a side
// index of task_id -> enqueue sequence number, maintained atomically with
// enqueue and dequeue, would make this O(1) if the queue ever grows past
// that.
func (q *RedisQueue) PositionOf(ctx context.Context, taskID string) (int, bool, error) {
	items, err := q.rdb.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: failed to scan queue: %v", ErrUnavailable, err)
	}

	for idx, raw := range items {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			q.logger.Warn("skipping malformed queue entry during position scan",
				"queue", q.key,
				"index", idx,
				"error", err)
			continue
		}
		if entry.TaskID == taskID {
			return idx + 1, true, nil
		}
	}

	return 0, false, nil
}

// Dequeue pops the head entry, blocking up to timeout.
//
// The entry is removed at dequeue time, so delivery is at-most-once: a
// worker crash between dequeue and the terminal write leaves the task
// PENDING rather than redelivering it.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Entry, error) {
	values, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to dequeue: %v", ErrUnavailable, err)
	}

	// BLPOP returns [key, value].
	if len(values) != 2 {
		return nil, fmt.Errorf("%w: unexpected BLPOP reply of length %d", ErrMalformedEntry, len(values))
	}

	var entry Entry
	if err := json.Unmarshal([]byte(values[1]), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	return &entry, nil
}
