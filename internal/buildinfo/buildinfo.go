// Package buildinfo holds the version, commit and build date injected at
// link time, shared by both the client and server binaries the way
// cmd/plexd/main.go injects its own build-time variables.
package buildinfo

import "fmt"

// Set via -ldflags "-X .../buildinfo.Version=... -X .../buildinfo.Commit=... -X .../buildinfo.Date=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the build info the way the CLI version template prints it.
func String(binary string) string {
	return fmt.Sprintf("%s version %s\ncommit: %s\nbuilt: %s\n", binary, Version, Commit, Date)
}
