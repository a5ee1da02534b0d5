// Package prereqs checks that the host can give signing records the durability
// slashing protection relies on.
package prereqs

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type platform struct {
	os   string
	arch string
	// Minimum kernel release reported by uname -r, only checked on darwin.
	minMajor int
	minMinor int
	// Directory entries can be flushed with fsync, which the file backend
	// needs to make a renamed record durable.
	syncsDirectories bool
}

var (
	// execShellOutput has execShellOutputFunc as the default but can be changed for testing purposes.
	execShellOutput = execShellOutputFunc
	runtimeOS       = runtime.GOOS
	runtimeArch     = runtime.GOARCH
)

// execShellOutputFunc passes a command and args to exec.CommandContext and returns the result as a string
func execShellOutputFunc(ctx context.Context, command string, args ...string) (string, error) {
	result, err := exec.CommandContext(ctx, command, args...).Output() // #nosec G204
	if err != nil {
		return "", errors.Wrap(err, "error in command execution")
	}
	return string(result), nil
}

func supportedPlatforms() []platform {
	return []platform{
		{os: "linux", arch: "amd64", syncsDirectories: true},
		{os: "linux", arch: "arm64", syncsDirectories: true},
		// Darwin 18 is macOS 10.14.
		{os: "darwin", arch: "amd64", minMajor: 18, syncsDirectories: true},
		{os: "darwin", arch: "arm64", minMajor: 20, syncsDirectories: true},
		{os: "windows", arch: "amd64"},
	}
}

func currentPlatform() (platform, bool) {
	for _, p := range supportedPlatforms() {
		if p.os == runtimeOS && p.arch == runtimeArch {
			return p, true
		}
	}
	return platform{}, false
}

// parseVersion takes a string and splits it using sep separator, and outputs a slice of integers
// corresponding to version numbers. If it cannot find num level of versions, it returns an error
func parseVersion(input string, num int, sep string) ([]int, error) {
	components := strings.Split(strings.TrimSpace(input), sep)
	if len(components) < num {
		return nil, errors.New("insufficient information about version")
	}
	version := make([]int, num)
	for i := range version {
		var err error
		version[i], err = strconv.Atoi(strings.TrimSpace(components[i]))
		if err != nil {
			return nil, errors.Wrap(err, "error during conversion")
		}
	}
	return version, nil
}

// meetsMinPlatformReqs returns true if the runtime matches any on the list of supported platforms.
func meetsMinPlatformReqs(ctx context.Context) (bool, error) {
	p, ok := currentPlatform()
	if !ok {
		return false, nil
	}
	if p.os != "darwin" {
		return true, nil
	}
	release, err := execShellOutput(ctx, "uname", "-r")
	if err != nil {
		return false, errors.Wrap(err, "error obtaining darwin kernel release")
	}
	version, err := parseVersion(release, 2, ".")
	if err != nil {
		return false, errors.Wrap(err, "error parsing version")
	}
	if version[0] != p.minMajor {
		return version[0] > p.minMajor, nil
	}
	return version[1] >= p.minMinor, nil
}

// WarnIfPlatformNotSupported warns if the user's platform is not supported or if it fails to detect user's platform
func WarnIfPlatformNotSupported(ctx context.Context) {
	supported, err := meetsMinPlatformReqs(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to detect host platform")
		return
	}
	if !supported {
		log.Warn("This platform is not supported. The following platforms are supported: Linux/AMD64," +
			" Linux/ARM64, Mac OS X/AMD64 (10.14+), Mac OS X/ARM64 and Windows/AMD64")
	}
}

// CheckDirectorySync returns an error when the host cannot flush directory
// entries, so a record written by rename might not survive a crash.
func CheckDirectorySync() error {
	p, ok := currentPlatform()
	if ok && !p.syncsDirectories {
		return errors.Errorf("%s/%s cannot sync directories, use the bolt storage backend instead", runtimeOS, runtimeArch)
	}
	return nil
}
