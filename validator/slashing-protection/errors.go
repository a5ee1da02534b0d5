package slashingprotection

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/signingrecord"
)

var (
	// ErrStorageRead is returned when the stored signing record could not be read.
	ErrStorageRead = errors.New("could not read signing record")
	// ErrRecordDecode is returned when a stored signing record exists but is malformed.
	ErrRecordDecode = errors.New("could not decode signing record")
	// ErrStorageWrite is returned when an allowed signing record could not be durably written.
	// The signature must not be released.
	ErrStorageWrite = errors.New("could not write signing record")
	// ErrGenesisValidatorsRootMismatch is returned when the stored record belongs to another chain.
	ErrGenesisValidatorsRootMismatch = signingrecord.ErrGenesisValidatorsRootMismatch
	// ErrServiceStopped is returned for requests made after the protector was stopped.
	ErrServiceStopped = errors.New("slashing protection service is stopped")
)
