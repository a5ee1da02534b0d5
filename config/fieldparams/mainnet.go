package field_params

const (
	RootLength      = 32 // RootLength defines the byte length of a Merkle root.
	BLSPubkeyLength = 48 // BLSPubkeyLength defines the byte length of a BLS public key.
)
