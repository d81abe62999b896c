// Package main implements the tripkit worker process, which drains the
// recommendation work queue and executes generation jobs under the
// configured timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tripkit/tripkit-api/internal/config"
	"github.com/tripkit/tripkit-api/internal/metrics"
	"github.com/tripkit/tripkit-api/internal/platform/gemini"
	"github.com/tripkit/tripkit-api/internal/platform/logger"
	"github.com/tripkit/tripkit-api/internal/queue"
	"github.com/tripkit/tripkit-api/internal/store"
	"github.com/tripkit/tripkit-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("worker configuration loaded",
		"worker_count", cfg.Task.WorkerCount,
		"execute_timeout_seconds", cfg.Task.ExecuteTimeoutSeconds,
		"queue_key", cfg.Task.QueueKey)

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() {
		if err := rdb.Close(); err != nil {
			appLogger.Error("failed to close redis client", "error", err)
		}
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		appLogger.Warn("redis not reachable at startup", "error", err)
	}
	cancelPing()

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	generator, err := gemini.NewGenerator(context.Background(), appLogger, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize generation engine: %w", err)
	}

	taskStore := store.NewRedisTaskStore(rdb, cfg.Task.FallbackCacheSize, appLogger)
	workQueue := queue.NewRedisQueue(rdb, cfg.Task.QueueKey, appLogger)

	supervisor := task.NewSupervisor(workQueue, taskStore, generator, task.SupervisorConfig{
		WorkerCount:    cfg.Task.WorkerCount,
		ExecuteTimeout: cfg.Task.ExecuteTimeout(),
		DequeueWait:    5 * time.Second,
	}, appLogger)
	supervisor.Start()

	// The worker exposes its own health and metrics endpoint; it shares
	// no port with the API process.
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"travel-recommendation-worker"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("worker HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		supervisor.Stop()
		return fmt.Errorf("worker HTTP server failed: %w", err)
	case sig := <-stop:
		appLogger.Info("shutting down", "signal", sig.String())
	}

	// Stop pulling new jobs and let in-flight executions reach their
	// terminal writes before exiting.
	supervisor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Info("worker stopped")
	return nil
}
