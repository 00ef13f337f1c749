package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server.Port, cfg.Server.Port)
	assert.Equal(t, def.Backend.BaseURL, cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.Timeout)
	assert.Equal(t, 1700, cfg.UI.NotificationDelayMs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "* * * * *", cfg.Scheduler.ViewSweepCron)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "movieontip.yaml")
	content := []byte(`
server:
  port: 9090
backend:
  base_url: http://catalog.local:3001/
  timeout: 5
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("MOVIEONTIP_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://catalog.local:3001", cfg.Backend.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 5, cfg.Backend.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level, "env overrides file")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MOVIEONTIP_SERVER_PORT=7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MOVIEONTIP_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q, want %q", got, "127.0.0.1:8080")
	}
}
