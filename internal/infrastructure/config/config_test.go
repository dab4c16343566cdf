package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.Push.URL)
	assert.Equal(t, 5, cfg.Push.ReconnectAttempts)
	assert.Equal(t, time.Second, cfg.Push.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GIGACHAT_API_URL", "https://chat.example.com")
	t.Setenv("GIGACHAT_API_TOKEN", "tok-123")
	t.Setenv("GIGACHAT_SYNC_POLL_INTERVAL", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.API.URL)
	assert.Equal(t, "tok-123", cfg.API.Token)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, "wss://chat.example.com/ws", cfg.Push.URL, "push URL follows the API URL")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gigachat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  url: http://10.0.0.1:9000\nlog:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.1:9000", cfg.API.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ws://10.0.0.1:9000/ws", cfg.Push.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPushURLFor(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws", PushURLFor("http://localhost:8080"))
	assert.Equal(t, "wss://chat.example.com/ws", PushURLFor("https://chat.example.com/"))
}
