package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFilesMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, 60*time.Second, cfg.Cache.SettingsTTL)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  addr: ":9000"
cache:
  backend: redis
  settings_ttl: 30s
database:
  name: from_yaml
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DB_NAME=from_dotenv\n"), 0o600))

	t.Setenv("SERVER_ADDR", ":9100")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.SettingsTTL)
	assert.Equal(t, "from_dotenv", cfg.Database.Name)
	assert.Equal(t, ":8081", cfg.Server.MetricsAddr)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	_, err := Load("", "")
	assert.ErrorContains(t, err, "cache.backend")
}

func TestConnectionString(t *testing.T) {
	d := Defaults().Database
	assert.Equal(t, "host=localhost port=5432 user=admin password=securepassword dbname=tenant_registry sslmode=disable",
		d.ConnectionString())

	d.DSN = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", d.ConnectionString())
}
