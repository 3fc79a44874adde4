package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Zero(t, cfg.ResolveTimeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "tendril.yaml", `
endpoint: ws://engine:9000
token: secret
timeout: 3s
resolve_timeout: 500ms
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://engine:9000", cfg.Endpoint)
	assert.Equal(t, "secret", cfg.Credentials)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ResolveTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "tendril.json", `{"endpoint":"unix:///tmp/engine.sock","timeout":"2s"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "unix:///tmp/engine.sock", cfg.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tendril.yml", "token: abc\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, "abc", cfg.Credentials)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "tendril.yaml", "endpoint: http://from-file\ntimeout: 1s\n")
	t.Setenv("TENDRIL_ENDPOINT", "http://from-env")
	t.Setenv("TENDRIL_TIMEOUT", "7s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Endpoint)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "endpoint: [unterminated"))
		assert.Error(t, err)
	})
	t.Run("bad json duration", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.json", `{"timeout":"soon"}`))
		assert.Error(t, err)
	})
	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("TENDRIL_TIMEOUT", "forever")
		_, err := Load("")
		assert.Error(t, err)
	})
}
