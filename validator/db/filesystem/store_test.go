package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/config/params"
	"github.com/prysmaticlabs/slashprotect/testing/assert"
	"github.com/prysmaticlabs/slashprotect/testing/require"
)

func pubKey(b byte) [fieldparams.BLSPubkeyLength]byte {
	var k [fieldparams.BLSPubkeyLength]byte
	k[0] = 0xa0
	k[fieldparams.BLSPubkeyLength-1] = b
	return k
}

func TestStore_ReadNeverWritten(t *testing.T) {
	// Create a new store.
	store, err := NewStore(t.TempDir())
	require.NoError(t, err, "could not create store")
	defer func() { require.NoError(t, store.Close()) }()

	enc, exists, err := store.Read(context.Background(), pubKey(1))
	require.NoError(t, err, "could not read record")
	require.Equal(t, false, exists, "record should not exist")
	require.Equal(t, 0, len(enc))
}

func TestStore_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err, "could not create store")
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("first")), "could not write record")
	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("second")), "could not overwrite record")
	require.NoError(t, store.SyncedWrite(ctx, pubKey(2), []byte("other")), "could not write record")

	enc, exists, err := store.Read(ctx, pubKey(1))
	require.NoError(t, err)
	require.Equal(t, true, exists)
	assert.DeepEqual(t, []byte("second"), enc)

	enc, exists, err = store.Read(ctx, pubKey(2))
	require.NoError(t, err)
	require.Equal(t, true, exists)
	assert.DeepEqual(t, []byte("other"), enc)
}

func TestStore_RecordFileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.SyncedWrite(context.Background(), pubKey(0xff), []byte("x")))

	name := "a0" + strings.Repeat("00", fieldparams.BLSPubkeyLength-2) + "ff.yml"
	info, err := os.Stat(filepath.Join(dir, name))
	require.NoError(t, err, "record file not found at expected path")
	assert.Equal(t, params.SigningRecordIoConfig().ReadWritePermissions, info.Mode().Perm())
}

func TestStore_NoTemporaryFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SyncedWrite(context.Background(), pubKey(1), []byte{byte(i)}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, 2, len(names), "unexpected files: %v", names)
	for _, n := range names {
		if n != lockFileName && !strings.HasSuffix(n, recordExtension) {
			t.Errorf("Unexpected file %s in data directory", n)
		}
	}
}

func TestStore_InterruptedWriteKeepsPreviousRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("committed")))

	// A crash between writing the temporary file and the rename leaves a partial
	// sibling file that must never be mistaken for the record.
	stray := store.recordPath(pubKey(1)) + "123456"
	require.NoError(t, os.WriteFile(stray, []byte("commi"), params.SigningRecordIoConfig().ReadWritePermissions))

	enc, exists, err := store.Read(ctx, pubKey(1))
	require.NoError(t, err)
	require.Equal(t, true, exists)
	assert.DeepEqual(t, []byte("committed"), enc)

	// The next write still goes through.
	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("next")))
	enc, _, err = store.Read(ctx, pubKey(1))
	require.NoError(t, err)
	assert.DeepEqual(t, []byte("next"), enc)
}

func TestStore_FailedWriteKeepsPreviousRecord(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("committed")))

	// Temporary files cannot be created in a read-only directory.
	require.NoError(t, os.Chmod(dir, 0500))
	defer func() { require.NoError(t, os.Chmod(dir, params.SigningRecordIoConfig().ReadWriteExecutePermissions)) }()
	assert.ErrorContains(t, "could not write record file", store.SyncedWrite(ctx, pubKey(1), []byte("lost")))

	enc, exists, err := store.Read(ctx, pubKey(1))
	require.NoError(t, err)
	require.Equal(t, true, exists)
	assert.DeepEqual(t, []byte("committed"), enc)
}

func TestStore_ReadError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	// A directory in place of the record file cannot be read.
	require.NoError(t, os.Mkdir(store.recordPath(pubKey(1)), 0700))
	_, _, err = store.Read(context.Background(), pubKey(1))
	assert.ErrorContains(t, "could not read record file", err)
}

func TestNewStore_LockedByAnotherStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = NewStore(dir)
	assert.ErrorIs(t, err, ErrStoreLocked)

	require.NoError(t, store.Close())
	second, err := NewStore(dir)
	require.NoError(t, err, "lock should be free after close")
	require.NoError(t, second.Close())
}

func TestNewStore_ExistingRootRestrictedToOwner(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "open")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.Chmod(dir, 0755))
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, params.SigningRecordIoConfig().ReadWriteExecutePermissions, info.Mode().Perm())

	require.NoError(t, store.SyncedWrite(context.Background(), pubKey(1), []byte("a")))
	_, exists, err := store.Read(context.Background(), pubKey(1))
	require.NoError(t, err)
	assert.Equal(t, true, exists)
}

func TestNewStore_RootIsAFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0600))
	_, err := NewStore(dir)
	assert.ErrorContains(t, "could not create data directory", err)
}

func TestStore_PublicKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	keys, err := store.PublicKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, len(keys))

	require.NoError(t, store.SyncedWrite(ctx, pubKey(1), []byte("a")))
	require.NoError(t, store.SyncedWrite(ctx, pubKey(2), []byte("b")))
	// Unrelated files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yml"), []byte("c"), 0600))
	require.NoError(t, os.WriteFile(store.recordPath(pubKey(3))+"999", []byte("d"), 0600))

	keys, err = store.PublicKeys(ctx)
	require.NoError(t, err)
	require.DeepEqual(t, [][fieldparams.BLSPubkeyLength]byte{pubKey(1), pubKey(2)}, keys)
}
