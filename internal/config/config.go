// Package config loads assistant configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all AVA configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Assistant persona
	Assistant AssistantConfig `yaml:"assistant"`

	// Calendar storage
	Calendar CalendarConfig `yaml:"calendar"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language model used for interpretation and
// response phrasing.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// AssistantConfig configures how the assistant addresses the user.
type AssistantConfig struct {
	UserName string `yaml:"user_name"`
	Language string `yaml:"language"`
	Tone     string `yaml:"tone"`
	// Timezone is an IANA zone name, e.g. "Asia/Kathmandu". Empty means
	// the system local zone.
	Timezone string `yaml:"timezone"`
}

// CalendarConfig configures the local event store.
type CalendarConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "gemini-1.5-pro-latest",
			Timeout: "60s",
		},
		Assistant: AssistantConfig{
			UserName: "there",
			Language: "English",
			Tone:     "friendly and concise",
		},
		Calendar: CalendarConfig{
			DatabasePath: "data/ava.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults plus environment overrides are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if name := os.Getenv("AVA_USER_NAME"); name != "" {
		c.Assistant.UserName = name
	}
	if lang := os.Getenv("AVA_LANGUAGE"); lang != "" {
		c.Assistant.Language = lang
	}
	if tone := os.Getenv("AVA_TONE"); tone != "" {
		c.Assistant.Tone = tone
	}
	if tz := os.Getenv("AVA_TIMEZONE"); tz != "" {
		c.Assistant.Timezone = tz
	}
	if path := os.Getenv("AVA_DB_PATH"); path != "" {
		c.Calendar.DatabasePath = path
	}
}

// LLMTimeout parses the configured LLM timeout, falling back to a minute on
// bad input.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Assistant.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Assistant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Assistant.Timezone, err)
	}
	return loc, nil
}
