// Package main implements the entry point for the tripkit API server,
// which accepts travel recommendation requests, deduplicates them, and
// queues them for background generation.
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

	"github.com/tripkit/tripkit-api/internal/api"
	apimiddleware "github.com/tripkit/tripkit-api/internal/api/middleware"
	"github.com/tripkit/tripkit-api/internal/config"
	"github.com/tripkit/tripkit-api/internal/metrics"
	"github.com/tripkit/tripkit-api/internal/platform/logger"
	"github.com/tripkit/tripkit-api/internal/queue"
	"github.com/tripkit/tripkit-api/internal/service"
	"github.com/tripkit/tripkit-api/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"fingerprint_ttl_hours", cfg.Task.FingerprintTTLHours)

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

	// Surface a broken store endpoint at startup instead of on the first
	// request. The server still starts if Redis is merely slow to come
	// up; submissions fail closed until it does.
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		appLogger.Warn("redis not reachable at startup", "error", err)
	}
	cancelPing()

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	taskStore := store.NewRedisTaskStore(rdb, cfg.Task.FallbackCacheSize, appLogger)
	fingerprints := store.NewRedisFingerprintIndex(rdb)
	workQueue := queue.NewRedisQueue(rdb, cfg.Task.QueueKey, appLogger)
	recommendationService := service.NewRecommendationService(
		taskStore,
		fingerprints,
		workQueue,
		cfg.Task.FingerprintTTL(),
		appLogger,
	)

	router := setupRouter(recommendationService, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-stop:
		appLogger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Info("server stopped")
	return nil
}

// setupRouter configures the application router with all routes and
// middleware.
func setupRouter(svc *service.RecommendationService, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.Trace)

	handler := api.NewRecommendationHandler(svc)

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", handler.Recommend)
		r.Get("/result/{taskID}", handler.GetResult)
		r.Get("/queue/position/{taskID}", handler.QueuePosition)
	})

	r.Get("/health", handler.Health)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"travel recommendation API","status":"running"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
