package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRIPKIT_LLM_GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.ModelName)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 600, cfg.Task.ExecuteTimeoutSeconds)
	assert.Equal(t, 120, cfg.Task.FingerprintTTLHours)
	assert.Equal(t, 2, cfg.Task.WorkerCount)
	assert.Equal(t, "queue:recommendations", cfg.Task.QueueKey)
	assert.Equal(t, 1024, cfg.Task.FallbackCacheSize)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRIPKIT_LLM_GEMINI_API_KEY", "test-key")
	t.Setenv("TRIPKIT_SERVER_PORT", "9090")
	t.Setenv("TRIPKIT_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TRIPKIT_REDIS_URL", "redis://redis.internal:6379/1")
	t.Setenv("TRIPKIT_TASK_EXECUTE_TIMEOUT_SECONDS", "30")
	t.Setenv("TRIPKIT_TASK_WORKER_COUNT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "redis://redis.internal:6379/1", cfg.Redis.URL)
	assert.Equal(t, 30, cfg.Task.ExecuteTimeoutSeconds)
	assert.Equal(t, 4, cfg.Task.WorkerCount)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("TRIPKIT_LLM_GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GeminiAPIKey")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
	}{
		"invalid log level":   {"TRIPKIT_SERVER_LOG_LEVEL", "verbose"},
		"port out of range":   {"TRIPKIT_SERVER_PORT", "70000"},
		"zero timeout":        {"TRIPKIT_TASK_EXECUTE_TIMEOUT_SECONDS", "0"},
		"malformed redis URL": {"TRIPKIT_REDIS_URL", "not a url"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TRIPKIT_LLM_GEMINI_API_KEY", "test-key")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestTaskConfigDurationHelpers(t *testing.T) {
	cfg := TaskConfig{ExecuteTimeoutSeconds: 600, FingerprintTTLHours: 120}

	assert.Equal(t, 10*time.Minute, cfg.ExecuteTimeout())
	assert.Equal(t, 120*time.Hour, cfg.FingerprintTTL())
}
