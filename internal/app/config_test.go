package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.Session.RefreshTTL)
	assert.True(t, cfg.Monitoring.Prometheus.Enabled)
	assert.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	assert.True(t, cfg.Maintenance.Enabled)
	assert.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9100
  log_level: debug
auth:
  jwt:
    secret: file-secret
    access_token_ttl: 30m
database:
  driver: postgres
  postgres:
    host: db.internal
    database: panelkit
    username: panel
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "file-secret", cfg.Auth.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PANELKIT_SERVER_PORT", "9200")
	t.Setenv("PANELKIT_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
}

func TestConfigValidate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = -1
	require.Error(t, cfg.Validate())
}
