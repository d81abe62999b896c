package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a recommendation task.
type TaskStatus string

// Possible task status values. A task starts as PENDING and transitions to
// exactly one of SUCCESS or FAILURE; terminal states are immutable.
const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// IsTerminal reports whether the status is SUCCESS or FAILURE.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailure
}

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusSuccess, TaskStatusFailure:
		return true
	}
	return false
}

// Task represents a single recommendation job and its durable state.
// The Result field is nil while the task is pending and holds the
// serialized structured payload (or error payload) once terminal.
type Task struct {
	ID          string          `json:"task_id"`
	Status      TaskStatus      `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}

// NewTask creates a pending task with a freshly generated identifier.
func NewTask() *Task {
	return &Task{
		ID:        uuid.NewString(),
		Status:    TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the task's structural invariants.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	return nil
}
