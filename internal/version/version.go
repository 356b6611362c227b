// Package version exposes build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X" at release build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the one-line version banner printed by the version command.
func String() string {
	return fmt.Sprintf("whisperclip %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}
