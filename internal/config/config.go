// Package config handles loading and parsing application configuration.
// It supports these sources (in priority order):
//  1. A command-line flag:      --config=/path/to/config.yaml
//  2. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  3. Environment variables alone (every field has a default)
//
// Environment variables always override values from the YAML file. A .env
// file in the working directory, if present, is loaded into the
// environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format. Valid values: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Log        Log        `yaml:"log"`
	Database   Database   `yaml:"database"`
	HTTPServer HTTPServer `yaml:"http_server"`
}

// Log holds logger settings.
type Log struct {
	// Level is one of trace, debug, info, warn(ing), error, critical.
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`

	// File, when set, receives a copy of every log line with rotation.
	File string `yaml:"file" env:"LOG_FILE"`
}

// Database holds the connection settings.
type Database struct {
	// Driver selects the backend. Left empty, it is inferred from URL:
	// postgres:// and postgresql:// mean PostgreSQL, anything else SQLite.
	Driver string `yaml:"driver" env:"DATABASE_DRIVER"`

	// URL is the SQLite file path or the PostgreSQL connection URL.
	URL string `yaml:"url" env:"DATABASE_URL" env-default:"storage/students.db"`

	// SkipMigrate disables applying pending migrations at startup.
	SkipMigrate bool `yaml:"skip_migrate" env:"DATABASE_SKIP_MIGRATE"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"0.0.0.0:5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Load reads the configuration. path may be empty, in which case
// CONFIG_PATH is consulted and then the environment alone.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		// Verify the file exists first for a clearer message than the
		// parser would give.
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: cannot read environment: %w", err)
	}

	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))

	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case "":
		driver = inferDriver(c.Database.URL)
	case "sqlite":
		driver = DriverSQLite
	case "postgresql", "pgx":
		driver = DriverPostgres
	}
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	c.Database.Driver = driver

	if driver != DriverMemory && strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("config: database url is required")
	}
	if c.HTTPServer.Addr == "" {
		return errors.New("config: http_server.address is required")
	}
	return nil
}

func inferDriver(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}
