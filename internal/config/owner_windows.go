//go:build windows

package config

import "os"

// Owner returns -1 for existing paths: ownership is not checked on Windows.
func Owner(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return -1, nil
}
