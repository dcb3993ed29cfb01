package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API server reads from the environment.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	Postgres Postgres
	Redis    Redis
	Firebase Firebase

	PendingBackend       string
	PendingMaxAge        time.Duration
	PendingSweepSchedule string
	JournalCacheTTL      time.Duration
	SessionCacheTTL      time.Duration
}

type Postgres struct {
	URL string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Firebase struct {
	ServiceAccountPath string
	ProjectID          string
}

const (
	PendingBackendRedis  = "redis"
	PendingBackendMemory = "memory"
)

// Load reads a .env file when one exists and then builds the Config from
// the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "9091"),
		AppEnv:               getEnvOrDefault("APP_ENV", "production"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		PendingBackend:       getEnvOrDefault("PENDING_BACKEND", PendingBackendRedis),
		PendingSweepSchedule: getEnvOrDefault("PENDING_SWEEP_SCHEDULE", "@every 1m"),
		Firebase: Firebase{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
			ProjectID:          os.Getenv("FIREBASE_PROJECT_ID"),
		},
	}

	cfg.Postgres.URL = os.Getenv("DATABASE_URL")
	if cfg.Postgres.URL == "" {
		// Default local development configuration
		host := getEnvOrDefault("POSTGRES_HOST", "localhost")
		port := getEnvOrDefault("POSTGRES_PORT", "5432")
		user := getEnvOrDefault("POSTGRES_USER", "worklog")
		password := getEnvOrDefault("POSTGRES_PASSWORD", "")
		dbname := getEnvOrDefault("POSTGRES_DB", "worklog")
		sslmode := getEnvOrDefault("POSTGRES_SSLMODE", "disable")

		cfg.Postgres.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			user, password, host, port, dbname, sslmode)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}
	cfg.Redis = Redis{
		Addr:     fmt.Sprintf("%s:%s", getEnvOrDefault("REDIS_HOST", "localhost"), getEnvOrDefault("REDIS_PORT", "6379")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	switch cfg.PendingBackend {
	case PendingBackendRedis, PendingBackendMemory:
	default:
		return nil, fmt.Errorf("invalid PENDING_BACKEND value %q", cfg.PendingBackend)
	}

	if cfg.PendingMaxAge, err = getDurationOrDefault("PENDING_MAX_AGE", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JournalCacheTTL, err = getDurationOrDefault("JOURNAL_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionCacheTTL, err = getDurationOrDefault("SESSION_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnvOrDefault returns the environment variable value or a default value if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s value: must be positive", key)
	}
	return d, nil
}
