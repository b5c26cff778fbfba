package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Quote     QuoteConfig
	Analyzer  AnalyzerConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
	RateLimitRPS int
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	// Backend is "memory", "redis" or "postgres"
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// QuoteConfig holds market-data provider configuration
type QuoteConfig struct {
	// Provider is "synthetic" for now; real feeds plug in behind the same
	// interface.
	Provider string
	CacheTTL time.Duration
}

// AnalyzerConfig holds recommendation-band thresholds
type AnalyzerConfig struct {
	StrongBuyThreshold float64
	BuyThreshold       float64
	HoldThreshold      float64
	ReduceThreshold    float64
}

// SchedulerConfig holds batch-task configuration
type SchedulerConfig struct {
	HistoryLimit  int
	MaxBatchSize  int
	ShutdownGrace time.Duration
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory or parent directories
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			JWTSecret:    getEnv("SERVER_JWT_SECRET", ""),
			RateLimitRPS: getEnvAsInt("SERVER_RATE_LIMIT_RPS", 100),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "memory"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "stock_advisor"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Quote: QuoteConfig{
			Provider: getEnv("QUOTE_PROVIDER", "synthetic"),
			CacheTTL: getEnvAsDuration("QUOTE_CACHE_TTL", 3*time.Second),
		},
		Analyzer: AnalyzerConfig{
			StrongBuyThreshold: getEnvAsFloat("ANALYZER_STRONG_BUY_THRESHOLD", 80),
			BuyThreshold:       getEnvAsFloat("ANALYZER_BUY_THRESHOLD", 65),
			HoldThreshold:      getEnvAsFloat("ANALYZER_HOLD_THRESHOLD", 45),
			ReduceThreshold:    getEnvAsFloat("ANALYZER_REDUCE_THRESHOLD", 30),
		},
		Scheduler: SchedulerConfig{
			HistoryLimit:  getEnvAsInt("SCHEDULER_HISTORY_LIMIT", 100),
			MaxBatchSize:  getEnvAsInt("SCHEDULER_MAX_BATCH_SIZE", 50),
			ShutdownGrace: getEnvAsDuration("SCHEDULER_SHUTDOWN_GRACE", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory, redis or postgres, got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required for the postgres backend")
	}
	if c.Storage.Backend == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required for the redis backend")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}
	if c.Scheduler.MaxBatchSize <= 0 {
		return fmt.Errorf("SCHEDULER_MAX_BATCH_SIZE must be positive")
	}
	return nil
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Addr builds the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
