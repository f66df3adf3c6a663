package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.DBConfig.MaxOpenConns)
	assert.Equal(t, 5, cfg.DBConfig.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConfig.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.DBConfig.ConnMaxIdleTime)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_MAX_OPEN_CONNS", "42")
	t.Setenv("DB_MAX_IDLE_CONNS", "7")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1h")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 42, cfg.DBConfig.MaxOpenConns)
	assert.Equal(t, 7, cfg.DBConfig.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.DBConfig.ConnMaxLifetime)
	assert.Equal(t, 90*time.Second, cfg.DBConfig.ConnMaxIdleTime)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("DB_CONN_MAX_LIFETIME", "forever")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DBConfig.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConfig.ConnMaxLifetime)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "value")
	assert.Equal(t, "value", getEnv("TEST_CONFIG_KEY", "default"))
	assert.Equal(t, "default", getEnv("TEST_CONFIG_MISSING_KEY", "default"))
}
