package internal

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"API_BASE_URL": "http://backend:8080/api/"})

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080/api", cfg.APIBaseURL)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, "none", cfg.ExportArchive)
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, 400*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 250*time.Millisecond, cfg.ModalCloseDelay)
	assert.Equal(t, "uk", cfg.Language)
	assert.False(t, cfg.IsSecure())
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing backend", map[string]string{"API_BASE_URL": ""}, "API_BASE_URL is required"},
		{"postgres without url", map[string]string{"SESSION_STORE": "postgres"}, "DATABASE_URL is required"},
		{"unknown store", map[string]string{"SESSION_STORE": "etcd"}, "SESSION_STORE must be"},
		{"r2 without account", map[string]string{"EXPORT_ARCHIVE": "r2"}, "R2_ACCOUNT_ID is required"},
		{"unknown archive", map[string]string{"EXPORT_ARCHIVE": "ftp"}, "EXPORT_ARCHIVE must be"},
		{"unknown language", map[string]string{"LANGUAGE": "de"}, "LANGUAGE must be"},
		{"page size", map[string]string{"DEFAULT_PAGE_SIZE": "1000"}, "DEFAULT_PAGE_SIZE must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "http://backend")
			setEnv(t, tt.env)

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewConfig_Redis(t *testing.T) {
	setEnv(t, map[string]string{
		"API_BASE_URL":    "http://backend",
		"SESSION_STORE":   "Redis",
		"REDIS_ADDR":      "cache:6379",
		"ENV":             "production",
		"SEARCH_DEBOUNCE": "1s",
	})

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, time.Second, cfg.SearchDebounce)
	assert.True(t, cfg.IsSecure())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "WARN")

	logger.Info("hidden")
	logger.Warn("shown", "kind", "clients")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"tradedesk"`)
}
