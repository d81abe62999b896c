package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Redis  RedisConfig  `mapstructure:"redis"  validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm"    validate:"required"`
	Task   TaskConfig   `mapstructure:"task"   validate:"required"`
}

// ServerConfig contains the HTTP server settings shared by both binaries.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// RedisConfig contains the durable store / queue broker settings.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains the generation engine settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"      validate:"required"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// TaskConfig contains the job orchestration settings.
type TaskConfig struct {
	// ExecuteTimeoutSeconds is the hard wall-clock limit per engine
	// invocation.
	ExecuteTimeoutSeconds int `mapstructure:"execute_timeout_seconds" validate:"required,gt=0"`

	// FingerprintTTLHours is the retention window for request
	// fingerprint records.
	FingerprintTTLHours int `mapstructure:"fingerprint_ttl_hours" validate:"required,gt=0"`

	// WorkerCount is the number of concurrent job executors in the
	// worker process.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueKey names the Redis list used as the work queue.
	QueueKey string `mapstructure:"queue_key" validate:"required"`

	// FallbackCacheSize bounds the in-process task-state cache.
	FallbackCacheSize int `mapstructure:"fallback_cache_size" validate:"required,gt=0"`
}

// ExecuteTimeout returns the engine execution limit as a duration.
func (c TaskConfig) ExecuteTimeout() time.Duration {
	return time.Duration(c.ExecuteTimeoutSeconds) * time.Second
}

// FingerprintTTL returns the fingerprint retention window as a duration.
func (c TaskConfig) FingerprintTTL() time.Duration {
	return time.Duration(c.FingerprintTTLHours) * time.Hour
}
