package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tripkit/tripkit-api/internal/domain"
	"github.com/tripkit/tripkit-api/internal/metrics"
	"github.com/tripkit/tripkit-api/internal/queue"
	"github.com/tripkit/tripkit-api/internal/store"
)

// QueueStatus describes a task's place in the pending-work queue.
type QueueStatus struct {
	// Total is the pending count plus one, counting the job presumed to
	// be executing at the front.
	Total int64

	// Position is the task's 1-based distance from the front. It
	// defaults to 1 when the task is not found in the queue; a task
	// already executing or completed reports no position, and that case
	// is indistinguishable from a task that was never enqueued.
	Position int
}

// RecommendationService orchestrates submission and polling of
// recommendation tasks.
type RecommendationService struct {
	tasks          store.TaskStore
	fingerprints   store.FingerprintIndex
	queue          queue.Queue
	fingerprintTTL time.Duration
	logger         *slog.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(
	tasks store.TaskStore,
	fingerprints store.FingerprintIndex,
	q queue.Queue,
	fingerprintTTL time.Duration,
	logger *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		tasks:          tasks,
		fingerprints:   fingerprints,
		queue:          q,
		fingerprintTTL: fingerprintTTL,
		logger:         logger,
	}
}

// Submit deduplicates and enqueues a recommendation request, returning the
// task ID the client should poll.
//
// A fingerprint hit reuses the existing task while it is PENDING or
// SUCCESS, so identical concurrent submissions share one engine run and a
// completed run is served from the store. A fingerprint pointing at a
// FAILURE (or at a task the store no longer knows) is treated as not
// cached and a fresh task is created.
//
// Dedup lookups fail open: if the store is unreachable the request is
// submitted as new rather than rejected. Task creation and enqueueing
// fail closed.
func (s *RecommendationService) Submit(ctx context.Context, req domain.TravelRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	fingerprint, err := req.Fingerprint()
	if err != nil {
		return "", err
	}
	logger := s.logger.With("fingerprint", fingerprint)

	if taskID, ok := s.reusableTask(ctx, fingerprint, logger); ok {
		metrics.SubmissionsTotal.WithLabelValues("deduplicated").Inc()
		logger.Info("request deduplicated", "task_id", taskID)
		return taskID, nil
	}

	task := domain.NewTask()
	logger = logger.With("task_id", task.ID)

	if err := s.tasks.Create(ctx, task); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.fingerprints.Record(ctx, fingerprint, task.ID, s.fingerprintTTL); err != nil {
		// Losing the mapping only costs future dedup hits.
		logger.Warn("failed to record fingerprint mapping", "error", err)
	}

	if err := s.queue.Enqueue(ctx, task.ID, req); err != nil {
		logger.Error("failed to enqueue task after creation", "error", err)
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	logger.Info("task submitted", "destination", req.Destination)
	return task.ID, nil
}

// reusableTask resolves a fingerprint to an existing task worth reusing.
func (s *RecommendationService) reusableTask(ctx context.Context, fingerprint string, logger *slog.Logger) (string, bool) {
	taskID, err := s.fingerprints.Lookup(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			logger.Warn("fingerprint lookup unavailable, treating as cache miss", "error", err)
		}
		return "", false
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		logger.Warn("fingerprint points at unknown task, treating as cache miss",
			"task_id", taskID,
			"error", err)
		return "", false
	}

	if task.Status == domain.TaskStatusFailure {
		return "", false
	}
	return taskID, true
}

// GetResult returns the current state of a task.
func (s *RecommendationService) GetResult(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.tasks.Get(ctx, taskID)
}

// QueuePosition reports the queue status for a task.
func (s *RecommendationService) QueuePosition(ctx context.Context, taskID string) (*QueueStatus, error) {
	pending, err := s.queue.PendingCount(ctx)
	if err != nil {
		return nil, err
	}

	position, found, err := s.queue.PositionOf(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !found {
		// Known limitation: a task that is executing, finished, or
		// unknown has no queue position; report the front of the queue
		// rather than erroring.
		position = 1
	}

	return &QueueStatus{Total: pending + 1, Position: position}, nil
}
