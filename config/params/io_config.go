package params

import (
	"os"
	"time"
)

// IoConfig defines file permissions and lock timeouts for on-disk state.
type IoConfig struct {
	ReadWritePermissions        os.FileMode
	ReadWriteExecutePermissions os.FileMode
	BoltTimeout                 time.Duration
}

var defaultIoConfig = &IoConfig{
	ReadWritePermissions:        0600,
	ReadWriteExecutePermissions: 0700,
	BoltTimeout:                 1 * time.Second,
}

// SigningRecordIoConfig returns the io parameters used for signing record storage and logs.
func SigningRecordIoConfig() *IoConfig {
	return defaultIoConfig
}
