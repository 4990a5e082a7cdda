package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "TaskBoardX", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.Dir)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/board.db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/board.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Zero(t, cfg.Security.RateLimitRequests)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Run("debug in development", func(t *testing.T) {
		t.Setenv("APP_DEBUG", "true")
		t.Setenv("LOG_FORMAT", "console")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsDevelopment())
		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.Equal(t, "console", cfg.Logger.Format)
	})

	t.Run("production keeps json", func(t *testing.T) {
		t.Setenv("APP_ENVIRONMENT", "production")
		t.Setenv("APP_DEBUG", "true")
		t.Setenv("LOG_FORMAT", "console")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, "json", cfg.Logger.Format)
	})
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "etcd"}},
		{"s3 without bucket", map[string]string{"STORAGE_DRIVER": "s3"}},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "tbx", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tbx sslmode=disable", db.GetDSN())

	redis := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", redis.GetAddr())
}
