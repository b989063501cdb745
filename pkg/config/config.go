// Package config loads Themis configuration from a YAML file with
// environment variable overrides.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, then
// THEMIS_-prefixed environment variables. All sources are optional; a
// zero-config start uses defaults only.
//
// Example:
//
//	cfg, err := config.Load("./themis.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := storage.Open(cfg.Database.DataDir)
//
// Environment Variables:
//   - THEMIS_DATA_DIR="./data"
//   - THEMIS_SYNC_WRITES=true
//   - THEMIS_QUERY_SCAN_LIMIT=1000
//   - THEMIS_QUERY_FULLTEXT_LIMIT=100
//   - THEMIS_LOG_LEVEL="debug"
//   - THEMIS_LOG_FORMAT="json" or "console"
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all Themis configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Query    QueryConfig    `yaml:"query"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds storage engine settings.
type DatabaseConfig struct {
	// DataDir is the directory for data files.
	DataDir string `yaml:"data_dir"`
	// SyncWrites forces fsync after each write.
	SyncWrites bool `yaml:"sync_writes"`
}

// QueryConfig holds query engine limits.
type QueryConfig struct {
	// ScanLimit caps sorted scans that carry no LIMIT clause.
	ScanLimit int `yaml:"scan_limit"`
	// FulltextLimit caps FULLTEXT() results when the query gives none.
	FulltextLimit int `yaml:"fulltext_limit"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			DataDir: "./data/themis",
		},
		Query: QueryConfig{
			ScanLimit:     1000,
			FulltextLimit: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (skipped when path is empty or the file does not exist), then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file falls back to defaults.
		case err != nil:
			return cfg, errors.Wrapf(err, "read config %s", path)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("THEMIS_DATA_DIR"); v != "" {
		c.Database.DataDir = v
	}
	if v := os.Getenv("THEMIS_SYNC_WRITES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Database.SyncWrites = b
		}
	}
	if v := os.Getenv("THEMIS_QUERY_SCAN_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Query.ScanLimit = n
		}
	}
	if v := os.Getenv("THEMIS_QUERY_FULLTEXT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Query.FulltextLimit = n
		}
	}
	if v := os.Getenv("THEMIS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("THEMIS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration for values that would fail later in
// a confusing place.
func (c *Config) Validate() error {
	if c.Database.DataDir == "" {
		return errors.New("config: database.data_dir must not be empty")
	}
	if c.Query.ScanLimit <= 0 {
		return errors.Newf("config: query.scan_limit must be positive, got %d", c.Query.ScanLimit)
	}
	if c.Query.FulltextLimit <= 0 {
		return errors.Newf("config: query.fulltext_limit must be positive, got %d", c.Query.FulltextLimit)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("config: unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errors.Newf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
