// Package file contains filesystem helpers for the slashing protection data directory.
package file

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/config/params"
)

// ExpandPath given a string which may be a relative path.
// 1. replace tilde with users home dir
// 2. expands embedded environment variables
// 3. cleans the path, e.g. /a/b/../c -> /a/c
// Note, it has limitations, e.g. ~someuser/tmp will not be expanded
func ExpandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Abs(filepath.Clean(os.ExpandEnv(p)))
}

// HomeDir for a user.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// MkdirAll takes in a path, expands it if necessary, and creates the directory accordingly
// with standardized, read-write-execute permissions for the owner. An existing directory
// that grants any access to group or others is restricted to the owner.
func MkdirAll(dirPath string) error {
	expanded, err := ExpandPath(dirPath)
	if err != nil {
		return err
	}
	exists, err := HasDir(expanded)
	if err != nil {
		return err
	}
	perm := params.SigningRecordIoConfig().ReadWriteExecutePermissions
	if !exists {
		return os.MkdirAll(expanded, perm)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&^perm == 0 {
		return nil
	}
	if err := os.Chmod(expanded, perm); err != nil {
		return fmt.Errorf("could not restrict %s to %#o permissions: %w", expanded, perm, err)
	}
	return nil
}

// HasDir checks if a directory indeed exists at the specified path.
func HasDir(dirPath string) (bool, error) {
	fullPath, err := ExpandPath(dirPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if info == nil {
		return false, err
	}
	return info.IsDir(), err
}

// Exists returns true if a regular file exists at the given path.
func Exists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// SyncDir flushes the directory entry table of dirPath to stable storage, so that
// a rename performed inside it survives a crash.
func SyncDir(dirPath string) error {
	d, err := os.Open(dirPath) // #nosec G304
	if err != nil {
		return errors.Wrapf(err, "could not open directory %s", dirPath)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return errors.Wrapf(err, "could not sync directory %s", dirPath)
	}
	return d.Close()
}
