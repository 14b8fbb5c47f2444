package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
server:
  port: 9000
database:
  path: `+filepath.Join(dir, "data", "test.db")+`
redis:
  address: localhost:6379
  cache_ttl_seconds: 120
rate_limit:
  requests_per_second: 5
  burst: 10
owner_tokens:
  secret-token: org1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 120, cfg.Redis.CacheTTLSeconds)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "org1", cfg.OwnerTokens["secret-token"])

	// the database directory is created
	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: "+filepath.Join(dir, "pawhaven.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")
	dir := t.TempDir()
	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "pawhaven.db")+`
redis:
  address: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}
