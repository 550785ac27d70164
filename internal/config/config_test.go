package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"DATABASE_URL", "LISTEN_ADDR", "UPLOAD_DIR", "CORS_ORIGINS", "JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "LOG_FORMAT", "REDIS_ADDRESS", "UPLOAD_SWEEP_SCHEDULE", "UPLOAD_SWEEP_GRACE", "ASYNQMON_ADDR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "campushire.sqlite", cfg.Database.URL)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "uploads", cfg.HTTP.UploadDir)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSOrigins)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Redis.Address)
	assert.Equal(t, "0 3 * * *", cfg.Worker.SweepSchedule)
	assert.Equal(t, time.Hour, cfg.Worker.SweepGrace)
	assert.Equal(t, ":8090", cfg.Worker.MonitorAddr)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file::memory:", cfg.Database.URL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LISTEN_ADDR", "")
	os.Unsetenv("LISTEN_ADDR")
	t.Cleanup(func() { os.Unsetenv("LISTEN_ADDR") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LISTEN_ADDR=:9999\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.ListenAddr)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN_TTL", "-1h")

	_, err := Load()
	assert.Error(t, err)
}
