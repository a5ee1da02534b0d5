package kv

import (
	"context"

	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/encoding/bytesutil"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// Read returns the encoded signing record stored for a public key.
func (s *Store) Read(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte) ([]byte, bool, error) {
	_, span := trace.StartSpan(ctx, "Validator.Read")
	defer span.End()

	var enc []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(signingRecordsBucket)
		v := bucket.Get(pubKey[:])
		if v == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		enc = make([]byte, len(v))
		copy(enc, v)
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "could not read signing record")
	}
	return enc, enc != nil, nil
}

// SyncedWrite replaces the encoded signing record of a public key. Bolt
// fsyncs every committed update transaction before returning.
func (s *Store) SyncedWrite(ctx context.Context, pubKey [fieldparams.BLSPubkeyLength]byte, enc []byte) error {
	_, span := trace.StartSpan(ctx, "Validator.SyncedWrite")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(signingRecordsBucket)
		return bucket.Put(pubKey[:], enc)
	})
	if err != nil {
		return errors.Wrap(err, "could not write signing record")
	}
	log.WithFields(logrus.Fields{
		"pubKey": bytesutil.Trunc(pubKey[:]),
		"bytes":  len(enc),
	}).Trace("Wrote signing record")
	return nil
}

// PublicKeys returns every public key with a stored signing record.
func (s *Store) PublicKeys(ctx context.Context) ([][fieldparams.BLSPubkeyLength]byte, error) {
	_, span := trace.StartSpan(ctx, "Validator.PublicKeys")
	defer span.End()

	var keys [][fieldparams.BLSPubkeyLength]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(signingRecordsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, bytesutil.ToBytes48(k))
			return nil
		})
	})
	return keys, err
}
