package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Public URL of this service
	BaseURL string

	// Backend API
	APIBaseURL string
	APITimeout time.Duration

	// Session state: "memory", "redis" or "postgres"
	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	DatabaseUrl   string // required when SessionStore is "postgres"

	// Auth cookie lifetime
	AuthCookieMaxAge time.Duration

	// List pages
	DefaultPageSize int
	SearchDebounce  time.Duration
	SelectDebounce  time.Duration

	// Dialog transitions
	ModalOpenDelay  time.Duration
	ModalCloseDelay time.Duration

	// User message language: "uk" or "en"
	Language string

	// Export archive: "none", "local" or "r2"
	ExportArchive string

	// Local archive (development)
	LocalStoragePath string

	// R2 archive (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Maintenance worker
	WorkerEnabled  bool
	WorkerInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		APITimeout: getEnvDuration("API_TIMEOUT", 30*time.Second),

		// Session state defaults to process memory for development
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		DatabaseUrl:   getEnv("DATABASE_URL", ""),

		AuthCookieMaxAge: getEnvDuration("AUTH_COOKIE_MAX_AGE", 12*time.Hour),

		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 50),
		SearchDebounce:  getEnvDuration("SEARCH_DEBOUNCE", 400*time.Millisecond),
		SelectDebounce:  getEnvDuration("SELECT_DEBOUNCE", 200*time.Millisecond),

		ModalOpenDelay:  getEnvDuration("MODAL_OPEN_DELAY", 10*time.Millisecond),
		ModalCloseDelay: getEnvDuration("MODAL_CLOSE_DELAY", 250*time.Millisecond),

		Language: strings.ToLower(getEnv("LANGUAGE", "uk")),

		// Archiving is off unless configured
		ExportArchive:    strings.ToLower(getEnv("EXPORT_ARCHIVE", "none")),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./exports"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		// Worker defaults
		WorkerEnabled:  getEnvBool("WORKER_ENABLED", true),
		WorkerInterval: getEnvDuration("WORKER_INTERVAL", 5*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.APIBaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	// Validate session store configuration
	switch cfg.SessionStore {
	case "memory", "redis":
	case "postgres":
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when SESSION_STORE is 'postgres'")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE must be 'memory', 'redis' or 'postgres', got: %s", cfg.SessionStore)
	}

	// Validate archive configuration
	switch cfg.ExportArchive {
	case "none", "local":
	case "r2":
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when EXPORT_ARCHIVE is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when EXPORT_ARCHIVE is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when EXPORT_ARCHIVE is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when EXPORT_ARCHIVE is 'r2'")
		}
	default:
		return nil, fmt.Errorf("EXPORT_ARCHIVE must be 'none', 'local' or 'r2', got: %s", cfg.ExportArchive)
	}

	if cfg.Language != "uk" && cfg.Language != "en" {
		return nil, fmt.Errorf("LANGUAGE must be 'uk' or 'en', got: %s", cfg.Language)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 500 {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and 500, got: %d", cfg.DefaultPageSize)
	}

	return cfg, nil
}

// IsSecure reports whether cookies must carry the Secure flag.
func (c *Config) IsSecure() bool {
	return c.Env != "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
