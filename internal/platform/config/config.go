// Package config builds runtime configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Backend selects which store implementation backs the process repository.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Server captures the full service configuration.
type Server struct {
	Addr string

	// Process store backend and its connection settings.
	ProcessBackend Backend
	PostgresDSN    string
	Redis          RedisConfig

	// Execution engine sizing.
	Workers       int
	QueueSize     int
	ExecTimeout   time.Duration
	RetryAttempts int
	RetryBase     time.Duration

	// Validator mode: format, existence, or record.
	ValidatorMode string

	// Completion event buffer; 0 means synchronous delivery.
	EventBuffer int

	// SeedDemoData loads demo enrollments into the in-memory record store.
	SeedDemoData bool
}

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables, with defaults
// suitable for local development.
func FromEnv() Server {
	return Server{
		Addr:           envStr("ENROLLCHECK_ADDR", ":8080"),
		ProcessBackend: Backend(envStr("ENROLLCHECK_PROCESS_BACKEND", string(BackendMemory))),
		PostgresDSN:    envStr("ENROLLCHECK_POSTGRES_DSN", ""),
		Redis: RedisConfig{
			URL:          envStr("ENROLLCHECK_REDIS_URL", ""),
			PoolSize:     envInt("ENROLLCHECK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ENROLLCHECK_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("ENROLLCHECK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ENROLLCHECK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ENROLLCHECK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Workers:       envInt("ENROLLCHECK_WORKERS", 4),
		QueueSize:     envInt("ENROLLCHECK_QUEUE_SIZE", 64),
		ExecTimeout:   envDuration("ENROLLCHECK_EXEC_TIMEOUT", 30*time.Second),
		RetryAttempts: envInt("ENROLLCHECK_RETRY_ATTEMPTS", 3),
		RetryBase:     envDuration("ENROLLCHECK_RETRY_BASE", 250*time.Millisecond),
		ValidatorMode: envStr("ENROLLCHECK_VALIDATOR_MODE", "existence"),
		EventBuffer:   envInt("ENROLLCHECK_EVENT_BUFFER", 256),
		SeedDemoData:  os.Getenv("ENROLLCHECK_SEED_DEMO_DATA") == "true",
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
