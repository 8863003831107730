package config

import "errors"

var ErrConfigNotLoaded = errors.New("config not loaded")

var defaultManager = NewConfigManager()

// Init initializes the configuration using the manager
func Init(workingDir, dataDir string, debug bool) (*Config, error) {
	return defaultManager.InitConfig(workingDir, dataDir, debug)
}

// Get returns the current configuration using the manager
func Get() *Config {
	return defaultManager.GetConfig()
}

// Set replaces the current configuration, typically after a reload.
func Set(cfg *Config) {
	defaultManager.SetConfig(cfg)
}
