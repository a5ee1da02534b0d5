package slashingprotection

import (
	"context"

	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
	"github.com/prysmaticlabs/slashprotect/runtime"
)

// Protector decides whether a validator may sign a block or an attestation. A
// signature must only be released when a call returns true and a nil error: the
// signing event has then been durably recorded.
type Protector interface {
	MaySignBlock(
		ctx context.Context,
		pubKey [fieldparams.BLSPubkeyLength]byte,
		genesisValidatorsRoot [fieldparams.RootLength]byte,
		slot primitives.Slot,
	) (bool, error)
	MaySignAttestation(
		ctx context.Context,
		pubKey [fieldparams.BLSPubkeyLength]byte,
		genesisValidatorsRoot [fieldparams.RootLength]byte,
		sourceEpoch, targetEpoch primitives.Epoch,
	) (bool, error)
	runtime.Service
}
