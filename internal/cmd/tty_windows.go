//go:build windows

package cmd

import "os"

// openTTY opens the console input, for reading keys while stdin is a pipe.
func openTTY() (*os.File, error) {
	return os.OpenFile("CONIN$", os.O_RDWR, 0o644)
}
