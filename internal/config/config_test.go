package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendSQLite, c.Backend)
	assert.Equal(t, "focus_ring", c.Namespace)
	assert.Equal(t, 10*time.Second, c.Remote.Timeout)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown backend":     func(c *Config) { c.Backend = "cloud" },
		"remote without url":  func(c *Config) { c.Backend = BackendRemote },
		"remote zero timeout": func(c *Config) { c.Backend, c.Remote.URL, c.Remote.Timeout = BackendRemote, "http://x", 0 },
		"local without dir":   func(c *Config) { c.Backend, c.DataDir = BackendLocal, "" },
		"empty namespace":     func(c *Config) { c.Namespace = "" },
		"bad log level":       func(c *Config) { c.Log.Level = "chatty" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "focusring.yaml", `
backend: remote
namespace: work_laptop
remote:
  url: http://localhost:9000/api
  timeout: 3s
log:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, c.Backend)
	assert.Equal(t, "work_laptop", c.Namespace)
	assert.Equal(t, "http://localhost:9000/api", c.Remote.URL)
	assert.Equal(t, 3*time.Second, c.Remote.Timeout)
	assert.Equal(t, "debug", c.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().Listen, c.Listen)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "focusring.yaml", "backend: sqlite\n")
	t.Setenv("FOCUSRING_BACKEND", "local")
	t.Setenv("FOCUSRING_DATA_DIR", dir)
	t.Setenv("FOCUSRING_LOG_LEVEL", "warn")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, c.Backend)
	assert.Equal(t, dir, c.DataDir)
	assert.Equal(t, "warn", c.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "focusring.yaml", "backend: floppy\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestLoadExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "focusring.yaml", "db_path: ~/tracker/focus.db\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tracker", "focus.db"), c.DBPath)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "focusring.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "existing file must not be overwritten")
	require.NoError(t, WriteDefault(path, true))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}
