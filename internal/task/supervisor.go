package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tripkit/tripkit-api/internal/domain"
	"github.com/tripkit/tripkit-api/internal/generation"
	"github.com/tripkit/tripkit-api/internal/metrics"
	"github.com/tripkit/tripkit-api/internal/normalize"
	"github.com/tripkit/tripkit-api/internal/queue"
	"github.com/tripkit/tripkit-api/internal/store"
)

// timeoutCause is the human-readable cause recorded when an engine
// invocation exceeds the execution deadline.
const timeoutCause = "execution timed out"

// SupervisorConfig holds configuration for the supervisor.
type SupervisorConfig struct {
	// WorkerCount determines how many jobs execute concurrently.
	WorkerCount int

	// ExecuteTimeout is the hard wall-clock limit per engine invocation.
	ExecuteTimeout time.Duration

	// DequeueWait bounds each blocking dequeue so workers notice
	// shutdown promptly. If zero, defaults to 5 seconds.
	DequeueWait time.Duration
}

// DefaultSupervisorConfig returns a SupervisorConfig with reasonable
// defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		WorkerCount:    2,
		ExecuteTimeout: 600 * time.Second,
		DequeueWait:    5 * time.Second,
	}
}

// Supervisor pulls jobs from the work queue and drives each one through
// the engine, the normalizer, and the task state store.
type Supervisor struct {
	queue     queue.Queue
	tasks     store.TaskStore
	generator generation.Generator
	config    SupervisorConfig
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a Supervisor. Start must be called before any jobs
// are processed.
func NewSupervisor(
	q queue.Queue,
	tasks store.TaskStore,
	generator generation.Generator,
	config SupervisorConfig,
	logger *slog.Logger,
) *Supervisor {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.DequeueWait <= 0 {
		config.DequeueWait = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		queue:     q,
		tasks:     tasks,
		generator: generator,
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker pool.
func (s *Supervisor) Start() {
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info("supervisor started", "worker_count", s.config.WorkerCount)
}

// Stop signals the workers to stop and waits for in-flight jobs to reach a
// terminal write.
func (s *Supervisor) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("supervisor stopped")
}

// worker repeatedly dequeues and processes jobs until shutdown.
func (s *Supervisor) worker(id int) {
	defer s.wg.Done()

	logger := s.logger.With("worker_id", id)
	logger.Debug("starting worker")

	for {
		select {
		case <-s.ctx.Done():
			logger.Debug("stopping worker")
			return
		default:
		}

		entry, err := s.queue.Dequeue(s.ctx, s.config.DequeueWait)
		if err != nil {
			if s.ctx.Err() != nil {
				logger.Debug("stopping worker")
				return
			}
			if errors.Is(err, queue.ErrMalformedEntry) {
				logger.Error("discarding malformed queue entry", "error", err)
				continue
			}
			logger.Error("failed to dequeue job", "error", err)
			// Brief pause so a down broker does not spin the worker.
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if entry == nil {
			continue
		}

		s.observeQueueDepth()
		s.processJob(entry, logger)
	}
}

// processJob runs a single job to a terminal state.
//
// Parse failure of the engine's output is still a SUCCESS of the job: the
// normalizer's degraded payload is a delivered result. Only an engine
// timeout or crash yields FAILURE.
func (s *Supervisor) processJob(entry *queue.Entry, logger *slog.Logger) {
	logger = logger.With("task_id", entry.TaskID, "destination", entry.Request.Destination)
	logger.Info("processing job")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ExecuteTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.invoke(ctx, entry.Request)
	elapsed := time.Since(start)
	metrics.JobDurationSeconds.Observe(elapsed.Seconds())

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("job timed out", "elapsed", elapsed, "timeout", s.config.ExecuteTimeout)
		metrics.JobsTotal.WithLabelValues("timeout").Inc()
		s.writeTerminal(entry.TaskID, domain.TaskStatusFailure, failurePayload(timeoutCause, ""), logger)

	case err != nil:
		var crash *engineCrash
		cause := err.Error()
		details := ""
		if errors.As(err, &crash) {
			cause = crash.cause
			details = crash.stack
		}
		logger.Error("job failed", "elapsed", elapsed, "error", err)
		metrics.JobsTotal.WithLabelValues("crash").Inc()
		s.writeTerminal(entry.TaskID, domain.TaskStatusFailure, failurePayload(cause, details), logger)

	default:
		result := normalize.Text(raw)
		outcome := "success"
		if result.IsDegraded() {
			outcome = "degraded"
			logger.Warn("engine output could not be parsed, recording degraded result",
				"parse_error", result.Degraded().Error)
		}
		metrics.JobsTotal.WithLabelValues(outcome).Inc()

		doc, err := json.Marshal(result.Document())
		if err != nil {
			// Document values come from json.Unmarshal, so this does not
			// happen in practice; fall back to a failure record rather
			// than leaving the task pending.
			logger.Error("failed to serialize normalized result", "error", err)
			s.writeTerminal(entry.TaskID, domain.TaskStatusFailure,
				failurePayload("failed to serialize result", err.Error()), logger)
			return
		}

		logger.Info("job completed", "elapsed", elapsed, "degraded", result.IsDegraded())
		s.writeTerminal(entry.TaskID, domain.TaskStatusSuccess, doc, logger)
	}
}

// engineCrash wraps a panic or error raised by the engine together with
// diagnostic detail for operators.
type engineCrash struct {
	cause string
	stack string
}

func (e *engineCrash) Error() string {
	return e.cause
}

// invoke runs the engine in its own goroutine so the wall-clock deadline
// holds even if the engine implementation ignores context cancellation.
func (s *Supervisor) invoke(ctx context.Context, req domain.TravelRequest) (string, error) {
	type engineResult struct {
		raw string
		err error
	}
	done := make(chan engineResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- engineResult{err: &engineCrash{
					cause: fmt.Sprintf("engine panic: %v", r),
					stack: string(debug.Stack()),
				}}
			}
		}()

		raw, err := s.generator.GenerateRecommendations(ctx, req)
		if err != nil {
			err = &engineCrash{cause: err.Error(), stack: fmt.Sprintf("%+v", err)}
		}
		done <- engineResult{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.raw, res.err
	}
}

// writeTerminal records the terminal state, tolerating a lost race with
// another executor: the first terminal write wins and later ones are
// logged and dropped.
func (s *Supervisor) writeTerminal(taskID string, status domain.TaskStatus, result json.RawMessage, logger *slog.Logger) {
	err := s.tasks.SetTerminal(context.Background(), taskID, status, result)
	if err == nil {
		return
	}

	if errors.Is(err, store.ErrInvalidTransition) {
		logger.Warn("task already terminal, keeping original state", "attempted_status", status)
		return
	}
	logger.Error("failed to write terminal task state", "status", status, "error", err)
}

// failurePayload builds the serialized error payload for a failed job.
func failurePayload(cause, details string) json.RawMessage {
	payload := map[string]string{"error": cause}
	if details != "" {
		payload["details"] = details
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage(`{"error":"internal failure"}`)
	}
	return data
}

// observeQueueDepth refreshes the queue depth gauge, best effort.
func (s *Supervisor) observeQueueDepth() {
	n, err := s.queue.PendingCount(context.Background())
	if err != nil {
		return
	}
	metrics.QueueDepth.Set(float64(n))
}
