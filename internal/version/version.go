package version

import "runtime/debug"

// Build-time parameters set via -ldflags

var Version = "devel"

// Builds made with `go install github.com/charmbracelet/winlist@latest` carry
// no -ldflags, so the module version embedded by `go install` is used
// instead. Plain `go build` leaves it at "devel".
func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	mainVersion := info.Main.Version
	if mainVersion != "" && mainVersion != "(devel)" {
		Version = mainVersion
	}
}
