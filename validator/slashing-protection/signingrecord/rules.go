package signingrecord

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
)

// ErrGenesisValidatorsRootMismatch is returned when a stored record belongs to another chain.
var ErrGenesisValidatorsRootMismatch = errors.New("signing record genesis validators root does not match")

// Decision is the outcome of evaluating a signing request against the previous record.
type Decision struct {
	allowed bool
	record  *SigningRecord
	reason  string
}

// Allowed reports whether signing may proceed.
func (d Decision) Allowed() bool {
	return d.allowed
}

// Record is the record to persist before the signature is released. It is nil
// when the request was denied.
func (d Decision) Record() *SigningRecord {
	return d.record
}

// Reason explains the decision.
func (d Decision) Reason() string {
	return d.reason
}

func allow(record *SigningRecord, reason string) Decision {
	return Decision{allowed: true, record: record, reason: reason}
}

func deny(format string, args ...interface{}) Decision {
	return Decision{reason: fmt.Sprintf(format, args...)}
}

// CheckGenesisValidatorsRoot fails if prev was written for a different chain than
// genesisValidatorsRoot. Records that predate chain identities are accepted.
func CheckGenesisValidatorsRoot(prev *SigningRecord, genesisValidatorsRoot [32]byte) error {
	if prev == nil {
		return nil
	}
	stored, ok := prev.GenesisValidatorsRoot()
	if !ok || stored == genesisValidatorsRoot {
		return nil
	}
	return errors.Wrapf(
		ErrGenesisValidatorsRootMismatch,
		"stored %#x, requested %#x",
		stored,
		genesisValidatorsRoot,
	)
}

// MaySignBlock decides whether a block at slot may be signed given the previous record.
// A block may only be signed for a slot strictly greater than the last signed one,
// re-signing the same slot included.
func MaySignBlock(prev *SigningRecord, genesisValidatorsRoot [32]byte, slot primitives.Slot) Decision {
	if prev == nil {
		return allow(New(genesisValidatorsRoot).WithBlockSlot(slot), "no previous signing record")
	}
	if last, ok := prev.LastSignedBlockSlot(); ok && slot <= last {
		return deny("block slot %d <= last signed block slot %d", slot, last)
	}
	return allow(adoptRoot(prev, genesisValidatorsRoot).WithBlockSlot(slot), "block slot is higher than last signed")
}

// MaySignAttestation decides whether an attestation from source to target may be signed
// given the previous record. The target must strictly increase, which rules out double
// votes, and the source must not decrease, which rules out surround votes.
func MaySignAttestation(
	prev *SigningRecord,
	genesisValidatorsRoot [32]byte,
	source, target primitives.Epoch,
) Decision {
	if prev == nil {
		return allow(New(genesisValidatorsRoot).WithAttestation(source, target), "no previous signing record")
	}
	if last, ok := prev.LastSignedAttestationTargetEpoch(); ok && target <= last {
		return deny("attestation target epoch %d <= last signed target epoch %d", target, last)
	}
	if last, ok := prev.LastSignedAttestationSourceEpoch(); ok && source < last {
		return deny("attestation source epoch %d < last signed source epoch %d", source, last)
	}
	return allow(adoptRoot(prev, genesisValidatorsRoot).WithAttestation(source, target), "attestation epochs advance")
}

// adoptRoot keeps the stored chain identity and fills it in for legacy records.
func adoptRoot(prev *SigningRecord, genesisValidatorsRoot [32]byte) *SigningRecord {
	if _, ok := prev.GenesisValidatorsRoot(); ok {
		return prev
	}
	return prev.WithGenesisValidatorsRoot(genesisValidatorsRoot)
}
