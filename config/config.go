// Package config provides configuration management for fsroute servers:
// typed defaults, YAML/env loading, and validation.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Config represents the application configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Logger    LoggerConfig    `yaml:"logger" env:"LOGGER"`
	Routes    RoutesConfig    `yaml:"routes" env:"ROUTES"`
	Static    StaticConfig    `yaml:"static" env:"STATIC"`
	Auth      AuthConfig      `yaml:"auth" env:"AUTH"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `yaml:"address" env:"ADDRESS" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	Recovery        bool          `yaml:"recovery" env:"RECOVERY"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Encoding string `yaml:"encoding" env:"ENCODING" validate:"oneof=json console"`
}

// RoutesConfig holds route-scan configuration.
type RoutesConfig struct {
	// Dir is the routes directory walked at startup.
	Dir string `yaml:"dir" env:"DIR" validate:"required"`

	// Extensions is the set of route-file extensions to scan.
	Extensions []string `yaml:"extensions" env:"EXTENSIONS" validate:"min=1"`

	// Watch enables rebuilding the table when the routes directory
	// changes.
	Watch bool `yaml:"watch" env:"WATCH"`
}

// StaticConfig holds static asset serving configuration.
type StaticConfig struct {
	Enabled      bool   `yaml:"enabled" env:"ENABLED"`
	Root         string `yaml:"root" env:"ROOT" validate:"required_if=Enabled true"`
	Prefix       string `yaml:"prefix" env:"PREFIX" validate:"omitempty,startswith=/"`
	CacheControl string `yaml:"cache_control" env:"CACHE_CONTROL"`
}

// AuthConfig holds bearer-token authentication configuration.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Secret  string `yaml:"secret" env:"SECRET" validate:"required_if=Enabled true"`
	Issuer  string `yaml:"issuer" env:"ISSUER"`
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	Rate    int  `yaml:"rate" env:"RATE" validate:"gte=0"`
	Burst   int  `yaml:"burst" env:"BURST" validate:"gte=0"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Recovery:        true,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		Routes: RoutesConfig{
			Dir:        "routes",
			Extensions: []string{".route"},
		},
		Static: StaticConfig{
			Enabled:      true,
			Root:         "public",
			Prefix:       "/assets",
			CacheControl: "public, max-age=3600",
		},
		RateLimit: RateLimitConfig{
			Rate:  10,
			Burst: 20,
		},
	}
}

var validate = validator.New()

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Build constructs a zap logger from the logger configuration.
func (c LoggerConfig) Build() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if c.Level == "debug" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	zapCfg.Level = level
	if c.Encoding != "" {
		zapCfg.Encoding = c.Encoding
	}
	return zapCfg.Build()
}
