// Package iface defines the byte-level storage boundary used by slashing protection.
package iface

import (
	"context"
	"io"

	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
)

// RecordAccessor stores one opaque encoded signing record per validator public key.
type RecordAccessor interface {
	io.Closer
	// Read returns the stored bytes for pubKey. The boolean is false, with a nil
	// error, when nothing has ever been written for the key.
	Read(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte) ([]byte, bool, error)
	// SyncedWrite replaces the stored bytes for pubKey. It does not return nil until
	// the new bytes are on stable storage; a crash at any point leaves either the
	// previous or the new value readable.
	SyncedWrite(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte, enc []byte) error
	// PublicKeys lists every validator with a stored record.
	PublicKeys(ctx context.Context) ([][fieldparams.BLSPubkeyLength]byte, error)
	// DatabasePath is the location of the backing storage.
	DatabasePath() string
}
