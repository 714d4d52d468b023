package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL     = "http://localhost:8000"
	DefaultAppName       = "sample_agent"
	DefaultUserID        = "user"
	DefaultStreamTimeout = "5m"
)

// Config is the persisted client configuration.
type Config struct {
	ServerURL string `yaml:"serverURL,omitempty" validate:"required,url"`
	AppName   string `yaml:"appName,omitempty" validate:"required"`
	UserID    string `yaml:"userId,omitempty" validate:"required"`

	// StreamTimeout bounds one whole send/stream cycle ("5m", "90s").
	// "0" disables the bound.
	StreamTimeout string `yaml:"streamTimeout,omitempty"`
}

// LoadOrCreateConfig reads config.yaml from ~/.config/<binary>/, writing a
// default one on first run.
func LoadOrCreateConfig() (*Config, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to determine executable path: %w", err)
	}
	binaryName := filepath.Base(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine user home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", binaryName)
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultCfg := Default()
		if err := saveConfig(configPath, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultCfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:     DefaultServerURL,
		AppName:       DefaultAppName,
		UserID:        DefaultUserID,
		StreamTimeout: DefaultStreamTimeout,
	}
}

func (cfg *Config) fillDefaults() {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	if cfg.StreamTimeout == "" {
		cfg.StreamTimeout = DefaultStreamTimeout
	}
}

func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration against its struct rules.
func (cfg *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.ParsedStreamTimeout(); err != nil {
		return err
	}
	return nil
}

// ParsedStreamTimeout returns StreamTimeout as a duration.
func (cfg *Config) ParsedStreamTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(cfg.StreamTimeout)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid streamTimeout %q: %w", cfg.StreamTimeout, err)
	}
	return d, nil
}

// ResolveServerURL picks the server URL from flag, environment or config,
// in that order.
func ResolveServerURL(flagVal, envVar string, cfg *Config) string {
	if strings.TrimSpace(flagVal) != "" {
		return strings.TrimSpace(flagVal)
	}
	if envVal := os.Getenv(envVar); strings.TrimSpace(envVal) != "" {
		return strings.TrimSpace(envVal)
	}
	return cfg.ServerURL
}
