package local

import (
	"context"
	"fmt"

	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	slashingprotection "github.com/prysmaticlabs/slashprotect/validator/slashing-protection"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/signingrecord"
	"go.opencensus.io/trace"
)

// recordStore translates between signing records and the accessor's bytes.
// Errors carry one of the storage sentinels of package slashingprotection and
// the underlying cause.
type recordStore struct {
	accessor iface.RecordAccessor
}

// read returns nil, nil when no record was ever written for pubKey. Stored bytes
// that fail to decode are an error, never an empty history.
func (s *recordStore) read(
	ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte,
) (*signingrecord.SigningRecord, error) {
	ctx, span := trace.StartSpan(ctx, "local.recordStore.read")
	defer span.End()

	enc, exists, err := s.accessor.Read(ctx, pubKey)
	if err != nil {
		return nil, fmt.Errorf("%w for public key %#x: %w", slashingprotection.ErrStorageRead, pubKey, err)
	}
	if !exists {
		return nil, nil
	}
	record, err := signingrecord.Unmarshal(enc)
	if err != nil {
		return nil, fmt.Errorf("%w for public key %#x: %w", slashingprotection.ErrRecordDecode, pubKey, err)
	}
	return record, nil
}

// write does not return nil before the record is on stable storage.
func (s *recordStore) write(
	ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte, record *signingrecord.SigningRecord,
) error {
	ctx, span := trace.StartSpan(ctx, "local.recordStore.write")
	defer span.End()

	enc, err := signingrecord.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w for public key %#x: %w", slashingprotection.ErrStorageWrite, pubKey, err)
	}
	if err := s.accessor.SyncedWrite(ctx, pubKey, enc); err != nil {
		return fmt.Errorf("%w for public key %#x: %w", slashingprotection.ErrStorageWrite, pubKey, err)
	}
	return nil
}
