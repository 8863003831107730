package config

import (
	"sync/atomic"
)

// ConfigManager manages configuration instances without using global state
type ConfigManager struct {
	config atomic.Pointer[Config]
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{}
}

// SetConfig sets the configuration atomically
func (cm *ConfigManager) SetConfig(cfg *Config) {
	cm.config.Store(cfg)
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config.Load()
}

// InitConfig initializes and sets the configuration
func (cm *ConfigManager) InitConfig(workingDir, dataDir string, debug bool) (*Config, error) {
	cfg, err := Load(workingDir, dataDir, debug)
	if err != nil {
		return nil, err
	}
	cm.SetConfig(cfg)
	return cfg, nil
}

// Reload loads the configuration again with the arguments of the current
// one and swaps it in.
func (cm *ConfigManager) Reload(dataDir string) (*Config, error) {
	cur := cm.GetConfig()
	if cur == nil {
		return nil, ErrConfigNotLoaded
	}
	return cm.InitConfig(cur.WorkingDir(), dataDir, cur.Options.Debug)
}

// Reset clears the configuration (useful for testing)
func (cm *ConfigManager) Reset() {
	cm.config.Store(nil)
}
