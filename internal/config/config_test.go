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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8138", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "auto_rename", cfg.Processing.ConflictStrategy)
	assert.Equal(t, "high", cfg.Processing.PDFQuality)
	assert.True(t, cfg.Processing.WriteMetadata)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, int64(100*1024*1024), cfg.Cache.MaxBytes)
	assert.Equal(t, 365, cfg.History.RetentionDays)
	assert.Contains(t, cfg.Schemas.Directory, "schemas")
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCANDEX_SERVER_PORT", ":9000")
	t.Setenv("SCANDEX_PROCESSING_CONFLICT_STRATEGY", "overwrite")
	t.Setenv("SCANDEX_PROCESSING_PDF_QUALITY", "low")
	t.Setenv("SCANDEX_MONITOR_ENABLED", "true")
	t.Setenv("SCANDEX_HISTORY_RETENTION_DAYS", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, "overwrite", cfg.Processing.ConflictStrategy)
	assert.Equal(t, "low", cfg.Processing.PDFQuality)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 30, cfg.History.RetentionDays)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": ":7777"},
		"processing": {"write_metadata": false},
		"cache": {"thumbnail_width": 320}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Port)
	assert.False(t, cfg.Processing.WriteMetadata)
	assert.Equal(t, 320, cfg.Cache.ThumbnailWidth)
	// Untouched keys keep their defaults.
	assert.Equal(t, "auto_rename", cfg.Processing.ConflictStrategy)
}

func TestLoadEnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": ":7777"}}`), 0o644))
	t.Setenv("SCANDEX_SERVER_PORT", ":9001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9001", cfg.Server.Port)
}

func TestLoadBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadPlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "5555")
	os.Unsetenv("SCANDEX_SERVER_PORT")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5555", cfg.Server.Port)
}
