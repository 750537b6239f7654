package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "crudr.yaml"))
	require.Error(t, err, "explicit config file must exist")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.REST.ListenAddr)
	assert.Equal(t, "public", cfg.REST.DBSchema)
	assert.Equal(t, 20, cfg.REST.DefaultLimit)
	assert.Equal(t, 100, cfg.REST.MaxLimit)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crudr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rest:
  pg:
    connString: postgres://localhost:5432/app
  listenAddr: ":9090"
  baseURL: /api
  maxLimit: 500
  basicAuth:
    admin: secret
  totalCacheTTL: 30s
metrics:
  enabled: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/app", cfg.REST.PG.ConnString)
	assert.Equal(t, ":9090", cfg.REST.ListenAddr)
	assert.Equal(t, "/api", cfg.REST.BaseURL)
	assert.Equal(t, 500, cfg.REST.MaxLimit)
	assert.Equal(t, map[string]string{"admin": "secret"}, cfg.REST.BasicAuth)
	assert.Equal(t, 30*time.Second, cfg.REST.TotalCacheTTL)
	assert.True(t, cfg.Metrics.Enabled)

	// Values the file omits keep their defaults.
	assert.Equal(t, 20, cfg.REST.DefaultLimit)
}
