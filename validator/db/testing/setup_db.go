package testing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prysmaticlabs/slashprotect/validator/db"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
)

// SetupDB instantiates and returns a record accessor of the given backend in a
// fresh directory under the test's temporary directory, closed when the test ends.
func SetupDB(t testing.TB, backend db.Backend) iface.RecordAccessor {
	accessor, err := db.Open(context.Background(), backend, filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("Failed to instantiate DB: %v", err)
	}
	t.Cleanup(func() {
		if err := accessor.Close(); err != nil {
			t.Fatalf("Failed to close database: %v", err)
		}
	})
	return accessor
}
