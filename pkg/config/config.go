package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":8080"

	// DefaultCompareGateCapacity is the default number of concurrent
	// compare requests allowed through the admission gate.
	DefaultCompareGateCapacity = 1

	// DefaultCompareGateWait is how long a compare request waits for a
	// gate slot before being told to retry later.
	DefaultCompareGateWait = "100ms"

	// DefaultHistoryWindow is the number of historic results considered
	// when computing a lookback z-score.
	DefaultHistoryWindow = 100

	// DefaultHistoryMinSamples is the minimum number of historic results
	// required before a z-score is reported.
	DefaultHistoryMinSamples = 3
)

// Config is the root configuration for regressoor.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Compare  CompareConfig  `yaml:"compare,omitempty" mapstructure:"compare"`
	History  HistoryConfig  `yaml:"history,omitempty" mapstructure:"history"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Public  RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// CompareConfig contains settings for the compare admission gate.
type CompareConfig struct {
	GateCapacity int    `yaml:"gate_capacity,omitempty" mapstructure:"gate_capacity"`
	GateWait     string `yaml:"gate_wait,omitempty" mapstructure:"gate_wait"`
}

// HistoryConfig contains settings for the lookback z-score annotator.
type HistoryConfig struct {
	Window     int `yaml:"window,omitempty" mapstructure:"window"`
	MinSamples int `yaml:"min_samples,omitempty" mapstructure:"min_samples"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver   string               `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Compare.GateCapacity == 0 {
		c.Compare.GateCapacity = DefaultCompareGateCapacity
	}

	if c.Compare.GateWait == "" {
		c.Compare.GateWait = DefaultCompareGateWait
	}

	if c.History.Window == 0 {
		c.History.Window = DefaultHistoryWindow
	}

	if c.History.MinSamples == 0 {
		c.History.MinSamples = DefaultHistoryMinSamples
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}

		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	case "":
		return fmt.Errorf("database.driver is required")
	default:
		return fmt.Errorf(
			"unsupported database driver: %s", c.Database.Driver,
		)
	}

	if c.Compare.GateCapacity < 0 {
		return fmt.Errorf("compare.gate_capacity must not be negative")
	}

	if _, err := time.ParseDuration(c.Compare.GateWait); err != nil {
		return fmt.Errorf("parsing compare.gate_wait: %w", err)
	}

	if c.Server.RateLimit.Enabled &&
		c.Server.RateLimit.Public.RequestsPerMinute <= 0 {
		return fmt.Errorf(
			"server.rate_limit.public.requests_per_minute must be positive",
		)
	}

	return nil
}

// GateWaitDuration returns the parsed gate wait duration. Validate must
// have been called first; on a parse error the default is returned.
func (c *Config) GateWaitDuration() time.Duration {
	d, err := time.ParseDuration(c.Compare.GateWait)
	if err != nil {
		d, _ = time.ParseDuration(DefaultCompareGateWait)
	}

	return d
}
