// Package kv defines a bolt-db backed signing record accessor.
package kv

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	prombolt "github.com/prysmaticlabs/prombbolt"
	"github.com/prysmaticlabs/slashprotect/config/params"
	"github.com/prysmaticlabs/slashprotect/io/file"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// ProtectionDbFileName is the name of the slashing protection database file.
const ProtectionDbFileName = "slashing-protection.db"

var log = logrus.WithField("prefix", "db")

var _ iface.RecordAccessor = (*Store)(nil)

// registerCollector can be swapped in tests.
var registerCollector = prometheus.Register

// Store defines an implementation of the record accessor
// using BoltDB as the underlying persistent kv-store.
type Store struct {
	db           *bolt.DB
	databasePath string
}

// Close closes the underlying boltdb database.
func (s *Store) Close() error {
	prometheus.Unregister(createBoltCollector(s.db))
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// NewKVStore initializes a new boltDB key-value store at the directory
// path specified, creates the kv-buckets based on the schema, and stores
// an open connection db object as a property of the Store struct.
func NewKVStore(_ context.Context, dirPath string) (*Store, error) {
	hasDir, err := file.HasDir(dirPath)
	if err != nil {
		return nil, err
	}
	if !hasDir {
		if err := file.MkdirAll(dirPath); err != nil {
			return nil, err
		}
	}
	datafile := filepath.Join(dirPath, ProtectionDbFileName)
	boltDB, err := bolt.Open(datafile, params.SigningRecordIoConfig().ReadWritePermissions, &bolt.Options{
		Timeout: params.SigningRecordIoConfig().BoltTimeout,
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}

	kv := &Store{
		db:           boltDB,
		databasePath: dirPath,
	}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			signingRecordsBucket,
		)
	}); err != nil {
		return nil, closeOnError(boltDB, errors.Wrap(err, "could not create buckets"))
	}

	// Another open store may already export the bolt statistics.
	if err := registerCollector(createBoltCollector(kv.db)); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return nil, closeOnError(boltDB, errors.Wrap(err, "could not register bolt collector"))
		}
		log.Debug("Bolt collector already registered")
	}
	return kv, nil
}

// createBoltCollector returns a prometheus collector specifically configured for boltdb.
func createBoltCollector(db *bolt.DB) prometheus.Collector {
	return prombolt.New("boltDB", db)
}

// closeOnError releases the database file lock of a store that failed to initialize.
func closeOnError(db *bolt.DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		log.WithError(closeErr).Error("Could not close database after failed initialization")
	}
	return err
}
