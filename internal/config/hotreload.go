package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// HotReloader provides configuration hot-reloading capabilities
type HotReloader struct {
	mu        sync.RWMutex
	config    *Config
	paths     []string
	dataDir   string
	watcher   *fsnotify.Watcher
	callbacks []HotReloaderCallback
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	started   atomic.Bool

	debounce    time.Duration
	debounceMap map[string]time.Time
}

// HotReloaderCallback is called when configuration is reloaded
type HotReloaderCallback func(*Config) error

// NewHotReloader creates a reloader for every file cfg may be loaded from.
// dataDir is the data directory override cfg was loaded with.
func NewHotReloader(cfg *Config, dataDir string) (*HotReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	paths := []string{GlobalConfig(), GlobalConfigData()}
	for _, name := range projectConfigNames {
		paths = append(paths, filepath.Join(cfg.WorkingDir(), name))
	}
	paths = append(paths, cfg.LoadedFrom()...)
	for i, p := range paths {
		paths[i] = filepath.Clean(p)
	}
	slices.Sort(paths)

	hr := &HotReloader{
		config:      cfg,
		paths:       slices.Compact(paths),
		dataDir:     dataDir,
		watcher:     watcher,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		debounce:    defaultDebounce,
		debounceMap: make(map[string]time.Time),
	}

	return hr, nil
}

// Start begins watching the directories of the configuration files.
func (hr *HotReloader) Start() error {
	var dirs []string
	for _, p := range hr.paths {
		dirs = append(dirs, filepath.Dir(p))
	}
	slices.Sort(dirs)
	for _, dir := range slices.Compact(dirs) {
		if _, err := os.Stat(dir); err != nil {
			slog.Debug("Skipping missing config directory", "dir", dir)
			continue
		}
		if err := hr.watcher.Add(dir); err != nil {
			return err
		}
	}

	hr.started.Store(true)
	go hr.watchLoop()
	slog.Info("Configuration hot reloader started", "paths", hr.paths)
	return nil
}

// AddCallback adds a callback to be called when configuration changes
func (hr *HotReloader) AddCallback(callback HotReloaderCallback) {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	hr.callbacks = append(hr.callbacks, callback)
}

// GetConfig returns the current configuration
func (hr *HotReloader) GetConfig() *Config {
	hr.mu.RLock()
	defer hr.mu.RUnlock()
	return hr.config
}

// watchLoop watches for file system events
func (hr *HotReloader) watchLoop() {
	defer close(hr.done)
	for {
		select {
		case <-hr.ctx.Done():
			return
		case event, ok := <-hr.watcher.Events:
			if !ok {
				return
			}

			// Only handle events for our config files
			if !hr.isConfigFile(event.Name) {
				continue
			}

			// Debounce rapid events
			now := time.Now()
			if last, exists := hr.debounceMap[event.Name]; exists && now.Sub(last) < hr.debounce {
				continue
			}
			hr.debounceMap[event.Name] = now

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				slog.Debug("Configuration file changed, reloading", "file", event.Name)
				if err := hr.reloadConfig(); err != nil {
					slog.Error("Failed to reload configuration", "error", err)
				}
			}

		case err, ok := <-hr.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// isConfigFile checks if the event is for one of our config files
func (hr *HotReloader) isConfigFile(filename string) bool {
	_, found := slices.BinarySearch(hr.paths, filepath.Clean(filename))
	return found
}

// reloadConfig reloads the configuration from disk
func (hr *HotReloader) reloadConfig() error {
	old := hr.GetConfig()
	newConfig, err := Load(old.WorkingDir(), hr.dataDir, old.Options.Debug)
	if err != nil {
		return err
	}

	hr.mu.Lock()
	hr.config = newConfig
	callbacks := slices.Clone(hr.callbacks)
	hr.mu.Unlock()

	for i, callback := range callbacks {
		if err := callback(newConfig); err != nil {
			slog.Error("Configuration reload callback failed", "callback", i, "error", err)
			// Rollback on first error
			hr.mu.Lock()
			hr.config = old
			hr.mu.Unlock()
			return err
		}
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}

// Stop stops the hot reloader
func (hr *HotReloader) Stop() error {
	hr.cancel()
	err := hr.watcher.Close()
	if hr.started.Load() {
		<-hr.done
	}
	return err
}
