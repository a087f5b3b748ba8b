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

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
env: prod
log:
  level: warn
database:
  url: "postgres://app:secret@db:5432/students"
http_server:
  address: "127.0.0.1:9090"
  shutdown_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Database.SkipMigrate)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPServer.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.ReadTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "from-file.db"
`)
	t.Setenv("DATABASE_URL", "from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Database.URL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("HTTP_SERVER_ADDR", ":7000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, ":7000", cfg.HTTPServer.Addr)
	assert.Equal(t, "dev", cfg.Env)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_UnknownDriver(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: oracle
  url: "whatever"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestInferDriver(t *testing.T) {
	assert.Equal(t, DriverPostgres, inferDriver("postgresql://u@h/db"))
	assert.Equal(t, DriverPostgres, inferDriver("POSTGRES://u@h/db"))
	assert.Equal(t, DriverSQLite, inferDriver("sqlite:///students.db"))
	assert.Equal(t, DriverSQLite, inferDriver("students.db"))
}
