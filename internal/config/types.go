// Package config loads sqlchain configuration from file, environment and
// CLI flags: the target warehouse, the template source and logging.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlchain/internal/warehouse"
)

// TargetConfig holds the connection settings for the target warehouse.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based engines (duckdb, sqlite)
	Path string `koanf:"path"`

	// Network engines
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Database string `koanf:"database"`
	Schema   string `koanf:"schema"`
}

// Config is the full sqlchain configuration.
type Config struct {
	Target       TargetConfig `koanf:"target"`
	TemplatesDir string       `koanf:"templates_dir"` // empty means the embedded catalog
	LogLevel     string       `koanf:"log_level"`
}

// ApplyDefaults fills type-dependent defaults.
func (t *TargetConfig) ApplyDefaults() {
	if t.Type == "" {
		t.Type = "duckdb"
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// Validate checks the target against the warehouse registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !warehouse.IsRegistered(strings.ToLower(t.Type)) {
		return &warehouse.UnknownWarehouseError{Type: t.Type, Available: warehouse.List()}
	}
	return nil
}

// Warehouse converts the target into a warehouse connection config.
func (t TargetConfig) Warehouse() warehouse.Config {
	return warehouse.Config{
		Type:     strings.ToLower(t.Type),
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		User:     t.User,
		Password: t.Password,
		Database: t.Database,
		Schema:   t.Schema,
	}
}

// Level parses the configured log level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
