package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/winlist/internal/home"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/sjson"
)

const (
	appName               = "winlist"
	defaultDataDirectory  = ".winlist"
	defaultMetricsAddress = "localhost:9464"

	DefaultEstimatedHeight = 3
	DefaultOverscan        = 2
)

// Project configuration file names, in increasing priority.
var projectConfigNames = []string{appName + ".json", "." + appName + ".json"}

type Options struct {
	DataDirectory  string `json:"data_directory,omitempty" jsonschema:"description=Directory for storing logs and runtime data (relative to working directory),default=.winlist,example=.winlist"` // Relative to the cwd
	Debug          bool   `json:"debug,omitempty" jsonschema:"description=Enable debug logging,default=false"`
	DisableMetrics bool   `json:"disable_metrics,omitempty" jsonschema:"description=Disable the Prometheus metrics endpoint,default=false"`
	MetricsAddress string `json:"metrics_address,omitempty" jsonschema:"description=Address the Prometheus metrics endpoint listens on,default=localhost:9464,example=:9464"`
}

// ListOptions configures the windowed list.
type ListOptions struct {
	ThresholdTop    int  `json:"threshold_top,omitempty" jsonschema:"description=Rows above the viewport whose items stay mounted,minimum=0,default=0,example=10"`
	EstimatedHeight int  `json:"estimated_height,omitempty" jsonschema:"description=Height in rows assumed for items that were never rendered,minimum=1,default=3"`
	Overscan        *int `json:"overscan,omitempty" jsonschema:"description=Extra items kept mounted on each side of the window,minimum=0,default=2"`
	Gap             int  `json:"gap,omitempty" jsonschema:"description=Empty rows between items,minimum=0,default=0"`
	ObserveResize   bool `json:"observe_resize,omitempty" jsonschema:"description=Re-measure items when their height changes instead of when they are re-rendered,default=false"`
	Wrap            bool `json:"wrap,omitempty" jsonschema:"description=Wrap long items instead of truncating them,default=false"`
	DisableMouse    bool `json:"disable_mouse,omitempty" jsonschema:"description=Ignore mouse wheel events,default=false"`
}

// OverscanOr returns the configured overscan.
func (l ListOptions) OverscanOr() int {
	return ptrValOr(l.Overscan, DefaultOverscan)
}

// JSONSchemaExtend documents the list options as a whole.
func (ListOptions) JSONSchemaExtend(schema *jsonschema.Schema) {
	schema.Description = "Windowed list options. Heights are measured in terminal rows."
}

// Config holds the configuration for winlist.
type Config struct {
	Schema string `json:"$schema,omitempty"`

	Options *Options `json:"options,omitempty" jsonschema:"description=General application options"`

	List *ListOptions `json:"list,omitempty" jsonschema:"description=Windowed list options"`

	// Internal
	workingDir    string   `json:"-"`
	dataConfigDir string   `json:"-"`
	loadedFrom    []string `json:"-"`
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// LoadedFrom returns the configuration files that were merged, in order.
func (c *Config) LoadedFrom() []string {
	return c.loadedFrom
}

// LogFile returns the path of the log file inside the data directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.Options.DataDirectory, "logs", appName+".log")
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.List != nil {
		if c.List.ThresholdTop < 0 {
			errs = append(errs, fmt.Errorf("list.threshold_top must not be negative, got %d", c.List.ThresholdTop))
		}
		if c.List.EstimatedHeight < 1 {
			errs = append(errs, fmt.Errorf("list.estimated_height must be at least 1, got %d", c.List.EstimatedHeight))
		}
		if c.List.Overscan != nil && *c.List.Overscan < 0 {
			errs = append(errs, fmt.Errorf("list.overscan must not be negative, got %d", *c.List.Overscan))
		}
		if c.List.Gap < 0 {
			errs = append(errs, fmt.Errorf("list.gap must not be negative, got %d", c.List.Gap))
		}
	}
	if c.Options != nil && !c.Options.DisableMetrics && c.Options.MetricsAddress == "" {
		errs = append(errs, errors.New("options.metrics_address must be set when metrics are enabled"))
	}
	return errors.Join(errs...)
}

// SetWrap toggles wrapping and persists it in the data configuration.
func (c *Config) SetWrap(enabled bool) error {
	if c.List == nil {
		c.List = &ListOptions{}
	}
	c.List.Wrap = enabled
	return c.SetConfigField("list.wrap", enabled)
}

// SetConfigField writes key to the data configuration file.
func (c *Config) SetConfigField(key string, value any) error {
	if c.dataConfigDir == "" {
		return errors.New("no data configuration file")
	}
	// read the data
	data, err := os.ReadFile(c.dataConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.dataConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.dataConfigDir, []byte(newValue), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GlobalConfig returns the path to the main configuration file for the user.
func GlobalConfig() string {
	if p := os.Getenv("WINLIST_GLOBAL_CONFIG"); p != "" {
		return filepath.Join(p, appName+".json")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	return filepath.Join(home.Dir(), ".config", appName, appName+".json")
}

// GlobalConfigData returns the path to the configuration file winlist
// writes itself, such as toggles changed from the TUI.
func GlobalConfigData() string {
	if p := os.Getenv("WINLIST_GLOBAL_DATA"); p != "" {
		return filepath.Join(p, appName+".json")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	if runtime.GOOS == "windows" {
		localAppData := cmp.Or(
			os.Getenv("LOCALAPPDATA"),
			filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local"),
		)
		return filepath.Join(localAppData, appName, appName+".json")
	}
	return filepath.Join(home.Dir(), ".local", "share", appName, appName+".json")
}

func ptrValOr[T any](t *T, el T) T {
	if t == nil {
		return el
	}
	return *t
}
