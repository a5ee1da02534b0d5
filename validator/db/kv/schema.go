package kv

// The schema holds a single bucket mapping a raw 48-byte validator public key
// to its encoded signing record.
var (
	signingRecordsBucket = []byte("signing-records")
)
