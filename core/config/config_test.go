package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, 0.8, cfg.Reconcile.SimilarityThreshold)
	assert.Equal(t, 15*time.Second, cfg.Registry.RequestTimeout)
	assert.Equal(t, "男子", cfg.Registry.MenLabel)
	assert.Equal(t, time.Duration(0), cfg.Reconcile.CacheTTL)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "RECONCILE_MAX_ATTEMPTS=5\nREGISTRY_ORGANIZATION_ID=99\nLOG_FORMAT=console\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("RECONCILE_MAX_ATTEMPTS")
		os.Unsetenv("REGISTRY_ORGANIZATION_ID")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, "99", cfg.Registry.OrganizationID)
	assert.Equal(t, "console", cfg.Log.Format)
}
