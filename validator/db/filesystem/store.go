// Package filesystem stores one signing record file per validator in a data directory.
package filesystem

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/encoding/bytesutil"
	"github.com/prysmaticlabs/slashprotect/io/file"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

const (
	recordExtension = ".yml"
	lockFileName    = "slashing-protection.lock"
)

// ErrStoreLocked is returned when another process already holds the data directory.
var ErrStoreLocked = errors.New("data directory is locked, it may be in use by another process")

var log = logrus.WithField("prefix", "filesystem")

var _ iface.RecordAccessor = (*Store)(nil)

// Store is a file backed record accessor. The storage root holds one
// `<hex-pubkey>.yml` file per validator.
type Store struct {
	databaseDir string
	fileLock    *flock.Flock
}

// NewStore creates the storage root if needed and takes an exclusive lock on it
// for the lifetime of the store.
func NewStore(databaseDir string) (*Store, error) {
	// Create the directory with owner-only permissions.
	if err := file.MkdirAll(databaseDir); err != nil {
		return nil, errors.Wrap(err, "could not create data directory")
	}
	expanded, err := file.ExpandPath(databaseDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not expand data directory path")
	}

	// Refuse to share the directory with another process.
	fileLock := flock.New(filepath.Join(expanded, lockFileName))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "could not lock data directory")
	}
	if !locked {
		return nil, errors.Wrapf(ErrStoreLocked, "path %s", expanded)
	}

	return &Store{
		databaseDir: expanded,
		fileLock:    fileLock,
	}, nil
}

// Read returns the encoded record of pubKey, if any.
func (s *Store) Read(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte) ([]byte, bool, error) {
	_, span := trace.StartSpan(ctx, "filesystem.Read")
	defer span.End()

	enc, err := os.ReadFile(s.recordPath(pubKey)) // #nosec G304
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, false, errors.Wrap(err, "could not read record file")
	}
	return enc, true, nil
}

// SyncedWrite writes enc to a temporary file next to the record, fsyncs it,
// renames it over the record and fsyncs the directory.
func (s *Store) SyncedWrite(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte, enc []byte) error {
	_, span := trace.StartSpan(ctx, "filesystem.SyncedWrite")
	defer span.End()

	p := s.recordPath(pubKey)
	if err := atomic.WriteFile(p, bytes.NewReader(enc)); err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return errors.Wrap(err, "could not write record file")
	}

	// The rename is only durable once the directory entry is.
	if err := file.SyncDir(s.databaseDir); err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return err
	}

	log.WithFields(logrus.Fields{
		"pubKey": bytesutil.Trunc(pubKey[:]),
		"bytes":  len(enc),
	}).Trace("Wrote signing record")
	return nil
}

// PublicKeys lists the validators with a record file in the storage root.
// Files whose name is not a hex encoded public key are ignored.
func (s *Store) PublicKeys(ctx context.Context) ([][fieldparams.BLSPubkeyLength]byte, error) {
	_, span := trace.StartSpan(ctx, "filesystem.PublicKeys")
	defer span.End()

	entries, err := os.ReadDir(s.databaseDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not list data directory")
	}
	var keys [][fieldparams.BLSPubkeyLength]byte
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExtension) {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimSuffix(name, recordExtension))
		if err != nil || len(raw) != fieldparams.BLSPubkeyLength {
			continue
		}
		keys = append(keys, bytesutil.ToBytes48(raw))
	}
	return keys, nil
}

// DatabasePath returns the storage root.
func (s *Store) DatabasePath() string {
	return s.databaseDir
}

// Close releases the data directory lock.
func (s *Store) Close() error {
	return s.fileLock.Unlock()
}

func (s *Store) recordPath(pubKey [fieldparams.BLSPubkeyLength]byte) string {
	return filepath.Join(s.databaseDir, hex.EncodeToString(pubKey[:])+recordExtension)
}
