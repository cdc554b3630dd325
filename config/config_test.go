package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := xdg.ConfigHome
	xdg.ConfigHome = filepath.Join(dir, "config")
	origCache := xdg.CacheHome
	xdg.CacheHome = filepath.Join(dir, "cache")
	t.Cleanup(func() {
		xdg.ConfigHome = orig
		xdg.CacheHome = origCache
	})
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range []string{"BASE_URL", "API_KEY", "CACHE_BACKEND", "CACHE_DIR", "CACHE_MAX_AGE", "DEBUG"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheMaxAge)
	assert.Equal(t, 2*time.Second, cfg.DedupeInterval)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(dir, "cache", AppName), cfg.CacheDir)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "localhost_3000.db"), cfg.StorePath())
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "crm.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CRM_BASE_URL=https://crm.example.org\nCRM_API_KEY=from-file\nCRM_CACHE_BACKEND=badger\n"), 0600))
	t.Setenv("CRM_API_KEY", "from-env")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.org", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "crm.example.org.badger"), cfg.StorePath())
}

func TestLoadReadsXDGEnvFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(xdg.ConfigHome, AppName, ".env")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0700))
	require.NoError(t, os.WriteFile(p, []byte("CRM_CACHE_MAX_AGE=5m\n"), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.CacheMaxAge)
}

func TestLoadMissingExplicitEnvFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{BaseURL: "http://localhost:3000", CacheBackend: BackendMemory}
	require.NoError(t, base.Validate())

	bad := base
	bad.CacheBackend = "redis"
	assert.EqualError(t, bad.Validate(), "unsupported CRM_CACHE_BACKEND: redis")

	bad = base
	bad.BaseURL = "localhost:3000"
	assert.ErrorContains(t, bad.Validate(), "invalid CRM_BASE_URL")
}
