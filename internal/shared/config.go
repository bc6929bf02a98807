package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	Upload  UploadConfig  `toml:"upload"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig describes the iVideo backend the gateway talks to.
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// SessionConfig selects the persisted session store.
type SessionConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "memory"
	Path   string `toml:"path"`
}

// UploadConfig contains bulk upload pacing.
type UploadConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the configured request timeout, falling back to [DefaultTimeout].
func (c *Config) Timeout() time.Duration {
	if c.Server.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.Server.TimeoutMS) * time.Millisecond
}

// LogLevel parses the configured level, defaulting to [log.InfoLevel].
func (c *Config) LogLevel() log.Level {
	if c.Log.Level == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("%w: server.base_url is empty", ErrInvalidConfig)
	}
	switch c.Session.Driver {
	case "", SessionDriverSQLite, SessionDriverMemory:
	default:
		return fmt.Errorf("%w: unknown session driver %q", ErrInvalidConfig, c.Session.Driver)
	}
	if c.Session.Driver != SessionDriverMemory && c.Session.Path == "" {
		return fmt.Errorf("%w: session.path is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
