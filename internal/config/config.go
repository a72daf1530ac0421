// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Persistence. DBDriver "postgres" (default) or "memory" for a
	// database-less development server.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible L2 listing cache). Optional: the app
	// runs with the in-process cache alone when unreachable.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Category query cache tunables.
	CacheTTL       time.Duration
	SlowQuery      time.Duration
	WarmupOnStart  bool

	// Health-score penalty weights for the consistency diagnostic.
	PenaltyOrphan         int
	PenaltyLevel          int
	PenaltyEmptyHierarchy int
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBDriver:   envOrDefault("DB_DRIVER", "postgres"),
		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "wavecms"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "wavecms"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		WarmupOnStart: envOrDefault("CACHE_WARMUP_ON_START", "true") == "true",
	}

	var err error
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SlowQuery, err = durationEnv("CACHE_SLOW_QUERY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.PenaltyOrphan, err = intEnv("HEALTH_PENALTY_ORPHAN", 10); err != nil {
		return nil, err
	}
	if cfg.PenaltyLevel, err = intEnv("HEALTH_PENALTY_LEVEL", 15); err != nil {
		return nil, err
	}
	if cfg.PenaltyEmptyHierarchy, err = intEnv("HEALTH_PENALTY_EMPTY", 20); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBDriver == "memory" {
			return nil, fmt.Errorf("DB_DRIVER=memory is not allowed in production")
		}
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv parses a duration environment variable ("10m", "250ms").
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// intEnv parses an integer environment variable.
func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
