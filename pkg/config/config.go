package config

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from a YAML file with
// selected environment overrides applied afterwards.
type Config struct {
	API struct {
		// URL is the single remote endpoint all operations POST to.
		URL string `yaml:"url"`
		// TimeoutSeconds bounds each request; 0 means the built-in default.
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"api"`

	Keyring struct {
		// Service scopes the OS keyring entry holding the session record.
		Service string `yaml:"service"`
	} `yaml:"keyring"`

	LogLevel string `yaml:"log_level"`
}

// Validate checks the loaded configuration for usability.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.API.URL == "" {
		return fmt.Errorf("config validation failed: api.url is required")
	}
	if _, err := url.ParseRequestURI(c.API.URL); err != nil {
		return fmt.Errorf("config validation failed: api.url is not a valid URL: %w", err)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("config validation failed: api.timeout_seconds cannot be negative")
	}
	if c.Keyring.Service == "" {
		c.Keyring.Service = "fieldsurvey"
	}
	return nil
}

// Timeout returns the per-request timeout, 0 when the default should apply.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

var (
	loadedConfig *Config
	configMutex  sync.RWMutex
)

// LoadConfig reads and validates the YAML configuration file, then applies
// environment overrides (SURVEY_API_URL, LOG_LEVEL).
func LoadConfig(filePath string) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal YAML from '%s': %w", filePath, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	configMutex.Lock()
	loadedConfig = &cfg
	configMutex.Unlock()
	return nil
}

// GetConfig returns the last loaded configuration, nil before LoadConfig.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return loadedConfig
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SURVEY_API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
