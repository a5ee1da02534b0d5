// Package db opens the signing record accessor selected by the operator.
package db

import (
	"context"
	"fmt"

	"github.com/prysmaticlabs/slashprotect/validator/db/filesystem"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	"github.com/prysmaticlabs/slashprotect/validator/db/kv"
)

// Backend names a signing record storage implementation.
type Backend string

const (
	// FileBackend keeps one YAML file per validator.
	FileBackend Backend = "file"
	// BoltBackend keeps all records in a single bolt database.
	BoltBackend Backend = "bolt"
)

// Backends lists the accepted backend names, default first.
func Backends() []string {
	return []string{string(FileBackend), string(BoltBackend)}
}

// Open returns the accessor for backend rooted at dataDir.
func Open(ctx context.Context, backend Backend, dataDir string) (iface.RecordAccessor, error) {
	switch backend {
	case FileBackend, "":
		return filesystem.NewStore(dataDir)
	case BoltBackend:
		return kv.NewKVStore(ctx, dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q, expected one of %v", backend, Backends())
	}
}
