package primitives

import "fmt"

// Epoch represents a single epoch.
type Epoch uint64

// String returns the decimal representation of the epoch.
func (e Epoch) String() string {
	return fmt.Sprintf("%d", uint64(e))
}
