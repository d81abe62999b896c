package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// TRIPKIT_ prefix with underscores for nesting (e.g. TRIPKIT_REDIS_URL,
// TRIPKIT_TASK_EXECUTE_TIMEOUT_SECONDS) and take precedence over file
// values. Returns a validated Config or an error describing what is
// missing or malformed.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults double as the set of known keys so AutomaticEnv can bind
	// them. Required secrets default to empty and fail validation when
	// left unset.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("task.execute_timeout_seconds", 600)
	v.SetDefault("task.fingerprint_ttl_hours", 120)
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_key", "queue:recommendations")
	v.SetDefault("task.fallback_cache_size", 1024)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables carry the load.
	}

	v.SetEnvPrefix("TRIPKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
