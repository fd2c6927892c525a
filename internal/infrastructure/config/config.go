package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/temmy762/jarvis/internal/limits"
)

type Config struct {
	// Server configuration
	Environment string
	Port        int
	MetricsPort int

	// Database configuration
	DatabaseURL     string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Authentication
	JWTSecret string

	// Bulk operation capacity limits
	MinBatchSize  int
	MaxBatchSize  int
	MaxTotalItems int

	// Session lifecycle
	SessionTTL         time.Duration
	SessionSweepPeriod time.Duration

	// Observability
	OTLPEndpoint  string
	LogLevel      string
	LogFormat     string // json or console
	EnableTracing bool
	EnableMetrics bool

	// Demo adapter (in-memory domain for development)
	EnableDemoAdapter bool

	// Graceful shutdown
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnvAsInt("PORT", 8080),
		MetricsPort: getEnvAsInt("METRICS_PORT", 9090),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/infrastructure/postgres/migrations"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),

		MinBatchSize:  getEnvAsInt("BULK_MIN_BATCH_SIZE", limits.DefaultMinBatchSize),
		MaxBatchSize:  getEnvAsInt("BULK_MAX_BATCH_SIZE", limits.DefaultMaxBatchSize),
		MaxTotalItems: getEnvAsInt("BULK_MAX_TOTAL_ITEMS", limits.DefaultMaxTotalItems),

		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepPeriod: getEnvAsDuration("SESSION_SWEEP_PERIOD", 5*time.Minute),

		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		EnableTracing: getEnvAsBool("ENABLE_TRACING", false),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),

		EnableDemoAdapter: getEnvAsBool("ENABLE_DEMO_ADAPTER", false),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}

	if c.MaxOpenConns < c.MaxIdleConns {
		return fmt.Errorf("max_open_conns (%d) must be >= max_idle_conns (%d)",
			c.MaxOpenConns, c.MaxIdleConns)
	}

	if err := c.Limits().Validate(); err != nil {
		return fmt.Errorf("invalid bulk limits: %w", err)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

// Limits returns the configured bulk capacity bounds.
func (c *Config) Limits() limits.Limits {
	return limits.Limits{
		MinBatchSize:  c.MinBatchSize,
		MaxBatchSize:  c.MaxBatchSize,
		MaxTotalItems: c.MaxTotalItems,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
