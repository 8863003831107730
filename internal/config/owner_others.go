//go:build !windows

package config

import (
	"os"
	"syscall"
)

// Owner returns the user ID owning path.
func Owner(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return int(stat.Uid), nil
	}
	return os.Getuid(), nil
}
