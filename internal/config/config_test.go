package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  name: clinic
profiles:
  remote_enabled: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "clinic", cfg.Database.Name)
	assert.False(t, cfg.Profiles.RemoteEnabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Reconcile.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconcile.RetryInterval)
	assert.Equal(t, "patient_diagnoses", cfg.Tables.Diagnoses)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "profiles:\n  remote_enabled: true\n")
	t.Setenv("CLINIC_JWT_SECRET", "s3cret")
	t.Setenv("CLINIC_PROFILES_REMOTE", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.False(t, cfg.Profiles.RemoteEnabled)
}

func TestLoadConfig_RedisNeedsURL(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: redis\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
