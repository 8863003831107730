//go:build !windows

package cmd

import "os"

// openTTY opens the controlling terminal, for reading keys while stdin is a
// pipe.
func openTTY() (*os.File, error) {
	return os.Open("/dev/tty")
}
