// Package config loads the specstore workspace file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the workspace file name looked up when none is given.
const DefaultFile = "specstore.yaml"

// Identifier schemes.
const (
	SchemeCounter = "counter"
	SchemeUUID    = "uuid"
)

// Config is the workspace configuration.
type Config struct {
	// Database is the SQLite file holding the workspace stores. Relative
	// paths are resolved against the directory of the workspace file.
	Database string `yaml:"database"`

	// Remotes are base URLs of read-only remote specifications added to the
	// federation on startup.
	Remotes []string `yaml:"remotes,omitempty"`

	// Identifiers selects how new IRIs are minted: counter or uuid.
	Identifiers string `yaml:"identifiers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Serve configures the read-only HTTP server.
	Serve ServeConfig `yaml:"serve"`
}

// ServeConfig configures `specstore serve`.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no workspace file exists.
func Default() *Config {
	return &Config{
		Database:    "specstore.db",
		Identifiers: SchemeCounter,
		LogLevel:    "info",
		Serve:       ServeConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load reads the workspace file at path. A missing file yields Default().
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := decode(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Database != "" && cfg.Database != ":memory:" && !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(filepath.Dir(path), cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	switch c.Identifiers {
	case SchemeCounter, SchemeUUID:
	default:
		return fmt.Errorf("identifiers: unknown scheme %q (want counter or uuid)", c.Identifiers)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	for i, r := range c.Remotes {
		if r == "" {
			return fmt.Errorf("remotes[%d]: empty url", i)
		}
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
