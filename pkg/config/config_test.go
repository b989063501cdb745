package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./data/themis", cfg.Database.DataDir)
	assert.False(t, cfg.Database.SyncWrites)
	assert.Equal(t, 1000, cfg.Query.ScanLimit)
	assert.Equal(t, 100, cfg.Query.FulltextLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themis.yaml")
	data := `
database:
  data_dir: /var/lib/themis
  sync_writes: true
query:
  scan_limit: 500
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/themis", cfg.Database.DataDir)
	assert.True(t, cfg.Database.SyncWrites)
	assert.Equal(t, 500, cfg.Query.ScanLimit)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 100, cfg.Query.FulltextLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  scan_limit: 500\n"), 0o644))

	t.Setenv("THEMIS_DATA_DIR", "/tmp/env-data")
	t.Setenv("THEMIS_SYNC_WRITES", "true")
	t.Setenv("THEMIS_QUERY_SCAN_LIMIT", "250")
	t.Setenv("THEMIS_QUERY_FULLTEXT_LIMIT", "42")
	t.Setenv("THEMIS_LOG_LEVEL", "warn")
	t.Setenv("THEMIS_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-data", cfg.Database.DataDir)
	assert.True(t, cfg.Database.SyncWrites)
	assert.Equal(t, 250, cfg.Query.ScanLimit)
	assert.Equal(t, 42, cfg.Query.FulltextLimit)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_InvalidEnvValueIgnored(t *testing.T) {
	t.Setenv("THEMIS_QUERY_SCAN_LIMIT", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Query.ScanLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty data dir", func(c *Config) { c.Database.DataDir = "" }, "data_dir"},
		{"zero scan limit", func(c *Config) { c.Query.ScanLimit = 0 }, "scan_limit"},
		{"negative fulltext limit", func(c *Config) { c.Query.FulltextLimit = -1 }, "fulltext_limit"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
