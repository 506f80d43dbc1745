package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 200*time.Millisecond, cfg.VisitDelay)
	require.Equal(t, 8*time.Second, cfg.PaginationTimeout)
	require.Empty(t, cfg.BrowserProxy)
	require.Equal(t, "https://geo.api.gouv.fr", cfg.GeoAPIURL)
	require.Equal(t, "memory", cfg.VisitedBackend)
	require.True(t, cfg.Headless)
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "DATA_DIR=/tmp/annuaire\nVISIT_DELAY=1s\nHEADLESS=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("REDIS_DB", "3")
	t.Setenv("BROWSER_PROXY", "http://127.0.0.1:3128")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/annuaire", cfg.DataDir)
	require.Equal(t, time.Second, cfg.VisitDelay)
	require.False(t, cfg.Headless)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, "http://127.0.0.1:3128", cfg.BrowserProxy)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("VISITED_BACKEND", "memcached")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorIs(t, err, ErrInvalidVisitedBackend)
}
