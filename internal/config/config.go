package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration. The database connection address
// is not part of it: that is the single required command-line argument.
type Config struct {
	LogLevel string
	DBConfig DatabaseConfig
}

// DatabaseConfig holds connection pool tuning
type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfig loads the configuration from a .env file (if present) and
// environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is not an error; environment variables win either way.
	_ = godotenv.Load()

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "10"))
	if err != nil {
		maxOpen = 10
	}
	maxIdle, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		maxIdle = 5
	}
	lifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		lifetime = 5 * time.Minute
	}
	idleTime, err := time.ParseDuration(getEnv("DB_CONN_MAX_IDLE_TIME", "5m"))
	if err != nil {
		idleTime = 5 * time.Minute
	}

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DBConfig: DatabaseConfig{
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: lifetime,
			ConnMaxIdleTime: idleTime,
		},
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
