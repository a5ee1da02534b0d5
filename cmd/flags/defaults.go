package flags

import (
	"path/filepath"
	"runtime"

	"github.com/prysmaticlabs/slashprotect/io/file"
)

// DefaultDataDir is the default directory for signing records, placed in the
// user's home directory.
func DefaultDataDir() string {
	home := file.HomeDir()
	if home == "" {
		// As we cannot guess a stable location, return empty and handle later
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Eth2", "slashing-protection")
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Eth2", "slashing-protection")
	default:
		return filepath.Join(home, ".eth2", "slashing-protection")
	}
}
