// Package signingrecord defines the per-validator signing record used by local
// slashing protection, the rules deciding whether a new block or attestation may
// be signed against it, and its on-disk encoding.
package signingrecord

import (
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
)

// SigningRecord holds the latest signing boundaries of a single validator for a single
// chain, identified by its genesis validators root. A record is immutable: every
// builder method returns a new value and leaves the receiver untouched.
//
// Absent fields mean "never signed". The sentinel used on disk for those never leaks
// into this type.
type SigningRecord struct {
	genesisValidatorsRoot *[32]byte
	blockSlot             *primitives.Slot
	sourceEpoch           *primitives.Epoch
	targetEpoch           *primitives.Epoch
}

// New returns an empty record bound to the given genesis validators root.
func New(genesisValidatorsRoot [32]byte) *SigningRecord {
	return &SigningRecord{genesisValidatorsRoot: &genesisValidatorsRoot}
}

// GenesisValidatorsRoot returns the chain identity of the record. Records written by
// older clients may not carry one.
func (r *SigningRecord) GenesisValidatorsRoot() ([32]byte, bool) {
	if r.genesisValidatorsRoot == nil {
		return [32]byte{}, false
	}
	return *r.genesisValidatorsRoot, true
}

// LastSignedBlockSlot returns the highest slot a block was signed for.
func (r *SigningRecord) LastSignedBlockSlot() (primitives.Slot, bool) {
	if r.blockSlot == nil {
		return 0, false
	}
	return *r.blockSlot, true
}

// LastSignedAttestationSourceEpoch returns the source epoch of the latest signed attestation.
func (r *SigningRecord) LastSignedAttestationSourceEpoch() (primitives.Epoch, bool) {
	if r.sourceEpoch == nil {
		return 0, false
	}
	return *r.sourceEpoch, true
}

// LastSignedAttestationTargetEpoch returns the target epoch of the latest signed attestation.
func (r *SigningRecord) LastSignedAttestationTargetEpoch() (primitives.Epoch, bool) {
	if r.targetEpoch == nil {
		return 0, false
	}
	return *r.targetEpoch, true
}

// WithGenesisValidatorsRoot returns a copy of the record bound to root.
func (r *SigningRecord) WithGenesisValidatorsRoot(root [32]byte) *SigningRecord {
	cpy := r.copy()
	cpy.genesisValidatorsRoot = &root
	return cpy
}

// WithBlockSlot returns a copy of the record with slot as the last signed block slot.
func (r *SigningRecord) WithBlockSlot(slot primitives.Slot) *SigningRecord {
	cpy := r.copy()
	cpy.blockSlot = &slot
	return cpy
}

// WithAttestation returns a copy of the record with source and target as the last
// signed attestation epochs.
func (r *SigningRecord) WithAttestation(source, target primitives.Epoch) *SigningRecord {
	cpy := r.copy()
	cpy.sourceEpoch = &source
	cpy.targetEpoch = &target
	return cpy
}

// copy is deep: no pointer is shared between the receiver and the result.
func (r *SigningRecord) copy() *SigningRecord {
	cpy := &SigningRecord{}
	if r.genesisValidatorsRoot != nil {
		root := *r.genesisValidatorsRoot
		cpy.genesisValidatorsRoot = &root
	}
	if r.blockSlot != nil {
		slot := *r.blockSlot
		cpy.blockSlot = &slot
	}
	if r.sourceEpoch != nil {
		source := *r.sourceEpoch
		cpy.sourceEpoch = &source
	}
	if r.targetEpoch != nil {
		target := *r.targetEpoch
		cpy.targetEpoch = &target
	}
	return cpy
}
