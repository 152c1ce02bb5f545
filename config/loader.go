package config

import (
	"fmt"
	"os"

	bofryconfig "github.com/Bofry/config"
)

// Loader loads configuration from layered sources: defaults, then a YAML
// file, then a .env file, then environment variables. Missing files are
// skipped silently; the loaded result is always validated.
type Loader struct {
	yamlFile   string
	dotEnvFile string
	envPrefix  string
}

// NewLoader creates a loader with the default FSROUTE_ environment prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "FSROUTE_"}
}

// WithYAMLFile sets the YAML configuration file path.
func (l *Loader) WithYAMLFile(path string) *Loader {
	l.yamlFile = path
	return l
}

// WithDotEnvFile sets the .env file path.
func (l *Loader) WithDotEnvFile(path string) *Loader {
	l.dotEnvFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load populates cfg from all configured sources.
func (l *Loader) Load(cfg *Config) error {
	*cfg = *DefaultConfig()

	// Bofry/config panics on errors, so recover into a plain error.
	var loadErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					loadErr = err
				} else {
					loadErr = fmt.Errorf("configuration loading panic: %v", r)
				}
			}
		}()

		service := bofryconfig.NewConfigurationService(cfg)

		if l.yamlFile != "" {
			if _, err := os.Stat(l.yamlFile); err == nil {
				service.LoadYamlFile(l.yamlFile)
			} else if !os.IsNotExist(err) {
				loadErr = fmt.Errorf("failed to check YAML file: %w", err)
				return
			}
		}

		if l.dotEnvFile != "" {
			if _, err := os.Stat(l.dotEnvFile); err == nil {
				service.LoadDotEnvFile(l.dotEnvFile)
			} else if !os.IsNotExist(err) {
				loadErr = fmt.Errorf("failed to check .env file: %w", err)
				return
			}
		}

		prefix := l.envPrefix
		if len(prefix) > 0 && prefix[len(prefix)-1] == '_' {
			prefix = prefix[:len(prefix)-1]
		}
		service.LoadEnvironmentVariables(prefix)
	}()
	if loadErr != nil {
		return loadErr
	}

	return cfg.Validate()
}

// Load is a convenience helper that loads configuration from a YAML file
// (plus a .env file beside it, when present) and the FSROUTE_ environment.
func Load(yamlFile string) (*Config, error) {
	loader := NewLoader().WithYAMLFile(yamlFile)
	if yamlFile != "" {
		if _, err := os.Stat(".env"); err == nil {
			loader.WithDotEnvFile(".env")
		}
	}
	cfg := &Config{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
