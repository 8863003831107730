// Package term holds terminal capability checks.
package term

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// SupportsProgressBar tries to determine whether the current terminal supports
// progress bars by looking into environment variables.
func SupportsProgressBar() bool {
	return supportsProgressBar(os.Getenv("TERM_PROGRAM"), os.LookupEnv)
}

func supportsProgressBar(termProg string, lookup func(string) (string, bool)) bool {
	_, isWindowsTerminal := lookup("WT_SESSION")
	return isWindowsTerminal || strings.Contains(strings.ToLower(termProg), "ghostty")
}

// StartProgressBar shows an indeterminate progress bar on w when the
// terminal supports one. The returned function removes it.
func StartProgressBar(w io.Writer) func() {
	if !SupportsProgressBar() {
		return func() {}
	}
	_, _ = fmt.Fprint(w, ansi.SetIndeterminateProgressBar)
	return func() { _, _ = fmt.Fprint(w, ansi.ResetProgressBar) }
}
