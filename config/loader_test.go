package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/config"
)

func TestLoader_Defaults(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, config.NewLoader().Load(cfg))

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "routes", cfg.Routes.Dir)
	assert.True(t, cfg.Static.Enabled)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	yamlContent := `
server:
  address: ":9090"
  read_timeout: 45s
logger:
  level: "warn"
  encoding: "console"
routes:
  dir: "api-routes"
  watch: true
static:
  prefix: "/files"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg := &config.Config{}
	require.NoError(t, config.NewLoader().WithYAMLFile(path).Load(cfg))

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Encoding)
	assert.Equal(t, "api-routes", cfg.Routes.Dir)
	assert.True(t, cfg.Routes.Watch)
	assert.Equal(t, "/files", cfg.Static.Prefix)

	// Untouched values keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "public, max-age=3600", cfg.Static.CacheControl)
}

func TestLoader_MissingYAMLFileSkipped(t *testing.T) {
	cfg := &config.Config{}
	loader := config.NewLoader().WithYAMLFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, loader.Load(cfg))
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoader_InvalidValuesRejected(t *testing.T) {
	yamlContent := `
logger:
  level: "loud"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg := &config.Config{}
	err := config.NewLoader().WithYAMLFile(path).Load(cfg)
	assert.Error(t, err)
}
