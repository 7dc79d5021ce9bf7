// Package config loads server configuration from a YAML file with sane
// defaults for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Ticket   TicketConfig   `yaml:"ticket"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug or release
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type TicketConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Mode: "debug",
		},
		Auth: AuthConfig{
			JWTSecret: "auo-secret-key",
			APIKey:    "terminal-api-key",
			APISecret: "terminal-api-secret",
		},
		Database: DatabaseConfig{
			Path: "auo.db",
		},
		Ticket: TicketConfig{
			DebounceMs: 300,
		},
	}
}

// Load reads the config file at path, layering it over the defaults. A missing
// file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Ticket.DebounceMs < 0 {
		return nil, fmt.Errorf("debounce_ms must not be negative")
	}

	return cfg, nil
}

// Debounce returns the configured recompute debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Ticket.DebounceMs) * time.Millisecond
}
