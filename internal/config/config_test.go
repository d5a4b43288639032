package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyFileReturnsDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "specstore.db"), cfg.Database)
	assert.Equal(t, SchemeCounter, cfg.Identifiers)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database: data/models.db
remotes:
  - http://localhost:9000
  - https://specs.example.com
identifiers: uuid
log_level: debug
serve:
  addr: ":9999"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/models.db"), cfg.Database)
	assert.Equal(t, []string{"http://localhost:9000", "https://specs.example.com"}, cfg.Remotes)
	assert.Equal(t, SchemeUUID, cfg.Identifiers)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, ":9999", cfg.Serve.Addr)
}

func TestLoadKeepsAbsoluteAndMemoryDatabases(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database: /var/lib/specstore.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/specstore.db", cfg.Database)

	cfg, err = Load(writeConfig(t, "database: \":memory:\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown field", "databse: x.db\n", "databse"},
		{"unknown scheme", "identifiers: sequential\n", "unknown scheme"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"empty remote", "remotes: [\"\"]\n", "remotes[0]"},
		{"malformed", "database: [\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	cfg.LogLevel = "WARN"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
