package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/charmbracelet/winlist/internal/home"
)

// Load reads the global, data and project configuration files, in that
// order, applies defaults and environment overrides, and validates the
// result. Later files override earlier ones field by field.
func Load(workingDir, dataDir string, debug bool) (*Config, error) {
	cfg := &Config{
		workingDir:    workingDir,
		dataConfigDir: GlobalConfigData(),
	}

	paths := []string{GlobalConfig(), GlobalConfigData()}
	paths = append(paths, lookupProjectConfigs(workingDir)...)
	for _, path := range paths {
		ok, err := mergeFile(cfg, path)
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.loadedFrom = append(cfg.loadedFrom, path)
		}
	}

	cfg.setDefaults(workingDir, dataDir, debug)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("Configuration loaded", "files", cfg.loadedFrom)
	return cfg, nil
}

func mergeFile(cfg *Config, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) setDefaults(workingDir, dataDir string, debug bool) {
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.List == nil {
		c.List = &ListOptions{}
	}

	if dataDir != "" {
		c.Options.DataDirectory = dataDir
	} else if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = defaultDataDirectory
	}
	c.Options.DataDirectory = home.Long(c.Options.DataDirectory)
	if !filepath.IsAbs(c.Options.DataDirectory) {
		c.Options.DataDirectory = filepath.Join(workingDir, c.Options.DataDirectory)
	}
	if debug {
		c.Options.Debug = true
	}
	if c.Options.MetricsAddress == "" {
		c.Options.MetricsAddress = defaultMetricsAddress
	}

	if c.List.EstimatedHeight == 0 {
		c.List.EstimatedHeight = DefaultEstimatedHeight
	}
	if c.List.Overscan == nil {
		overscan := DefaultOverscan
		c.List.Overscan = &overscan
	}
}

func (c *Config) applyEnv() error {
	if v, _ := strconv.ParseBool(os.Getenv("WINLIST_DISABLE_METRICS")); v {
		c.Options.DisableMetrics = true
	}
	if v, _ := strconv.ParseBool(os.Getenv("DO_NOT_TRACK")); v {
		c.Options.DisableMetrics = true
	}
	if n, ok, err := envInt("WINLIST_OVERSCAN"); err != nil {
		return err
	} else if ok {
		c.List.Overscan = &n
	}
	if n, ok, err := envInt("WINLIST_THRESHOLD_TOP"); err != nil {
		return err
	} else if ok {
		c.List.ThresholdTop = n
	}
	return nil
}

func envInt(key string) (int, bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, true, nil
}

// lookupProjectConfigs returns the project configuration files from the
// outermost directory down to dir, stopping at the home directory. Files
// owned by someone else than the owner of dir are skipped.
func lookupProjectConfigs(dir string) []string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	owner, err := Owner(abs)
	if err != nil {
		return nil
	}

	var found []string
	for cwd := abs; ; {
		// Walk up in reverse so that the closest file ends up last.
		for _, name := range slices.Backward(projectConfigNames) {
			path := filepath.Join(cwd, name)
			if fowner, err := Owner(path); err == nil && (owner == -1 || fowner == owner) {
				found = append(found, path)
			}
		}
		parent := filepath.Dir(cwd)
		if parent == cwd || cwd == home.Dir() {
			break
		}
		cwd = parent
	}
	slices.Reverse(found)
	return found
}
