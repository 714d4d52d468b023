package config

import "strings"

// ConfigManager merges CLI flag values into the loaded Config.
// Priority: CLI flags > config file > default values. Every setting is a
// string, so a blank flag value means "not given" and leaves the file
// setting untouched.
type ConfigManager struct {
	cfg   *Config
	flags map[string]string
}

// NewConfigManager creates a new ConfigManager instance.
func NewConfigManager(cfg *Config) *ConfigManager {
	return &ConfigManager{
		cfg:   cfg,
		flags: make(map[string]string),
	}
}

// RegisterFlag records a CLI flag value under the setting's YAML key.
func (cm *ConfigManager) RegisterFlag(key, value string) {
	cm.flags[key] = value
}

// MergeConfiguration applies the registered non-blank flag values to the
// Config and returns it. Keys that name no setting are ignored.
func (cm *ConfigManager) MergeConfiguration() *Config {
	for key, value := range cm.flags {
		if strings.TrimSpace(value) == "" {
			continue
		}
		switch key {
		case "serverURL":
			cm.cfg.ServerURL = value
		case "appName":
			cm.cfg.AppName = value
		case "userId":
			cm.cfg.UserID = value
		case "streamTimeout":
			cm.cfg.StreamTimeout = value
		}
	}
	return cm.cfg
}
