package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prysmaticlabs/slashprotect/io/file"
	"github.com/prysmaticlabs/slashprotect/testing/assert"
	"github.com/prysmaticlabs/slashprotect/testing/require"
)

// setupDB instantiates and returns a Store instance for the validator client.
func setupDB(t testing.TB) *Store {
	db, err := NewKVStore(context.Background(), t.TempDir())
	require.NoError(t, err, "Failed to instantiate DB")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "Failed to close database")
	})
	return db
}

func TestNewKVStore_CreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	db, err := NewKVStore(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, true, file.Exists(filepath.Join(dir, ProtectionDbFileName)))
	assert.Equal(t, dir, db.DatabasePath())
	require.NoError(t, db.Close())
}

func TestNewKVStore_AlreadyOpen(t *testing.T) {
	db := setupDB(t)
	_, err := NewKVStore(context.Background(), db.DatabasePath())
	assert.ErrorContains(t, "cannot obtain database lock, database may be in use by another process", err)
}

func TestNewKVStore_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := NewKVStore(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, db.SyncedWrite(ctx, [48]byte{1}, []byte("record")))
	require.NoError(t, db.Close())

	db, err = NewKVStore(ctx, dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()
	enc, exists, err := db.Read(ctx, [48]byte{1})
	require.NoError(t, err)
	require.Equal(t, true, exists)
	assert.DeepEqual(t, []byte("record"), enc)
}

func TestNewKVStore_FailedInitReleasesLock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	registerCollector = func(prometheus.Collector) error { return errors.New("registry broken") }
	_, err := NewKVStore(ctx, dir)
	registerCollector = prometheus.Register
	require.ErrorContains(t, "could not register bolt collector", err)

	// The failed store must not keep the database file locked.
	db, err := NewKVStore(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNewKVStore_AlreadyRegisteredCollectorTolerated(t *testing.T) {
	first := setupDB(t)
	second, err := NewKVStore(context.Background(), filepath.Join(t.TempDir(), "second"))
	require.NoError(t, err)
	require.NoError(t, second.Close())
	assert.Equal(t, true, file.Exists(filepath.Join(first.DatabasePath(), ProtectionDbFileName)))
}
