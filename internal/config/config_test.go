package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
port = 8080
log_level = "trace"
log_to_stdout = true
sqlite_path = "./notes.db"
surreal_url = "ws://localhost:8000/rpc"
surreal_namespace = "notes_dev"
surreal_database = "notes"
surreal_note_table = "note"

[production]
port = 9000
log_level = "debug"
logs_path = "/var/log/notes-service/service.log"
sentry_enabled = true
sqlite_path = "/var/lib/notes-service/notes.db"
`

func testConfigFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := testConfigFile(t)

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.LogToStdout)
	assert.False(t, cfg.SentryEnabled)
	assert.Equal(t, "./notes.db", cfg.SqlitePath)
	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealURL)
	assert.Equal(t, "notes_dev", cfg.SurrealNamespace)
	assert.Equal(t, "notes", cfg.SurrealDatabase)
	assert.Equal(t, "note", cfg.SurrealNoteTable)

	cfg, err = Load("production", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	// no remote store configured in this file for production
	assert.Empty(t, cfg.SurrealURL)
}

func TestLoad_EnvAliases(t *testing.T) {
	path := testConfigFile(t)

	for _, env := range []string{"dev", "development", "DEV", "Development"} {
		cfg, err := Load(env, path)
		require.NoError(t, err, "env %s", env)
		assert.Equal(t, 8080, cfg.Port)
	}

	for _, env := range []string{"prod", "production", "PROD"} {
		cfg, err := Load(env, path)
		require.NoError(t, err, "env %s", env)
		assert.Equal(t, 9000, cfg.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	path := testConfigFile(t)

	_, err := Load("staging", path)
	assert.ErrorContains(t, err, "unknown env")

	_, err = Load("development", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	emptyPath := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(emptyPath, []byte("[development]\n"), 0o644))
	_, err = Load("production", emptyPath)
	assert.ErrorContains(t, err, "empty")
}
