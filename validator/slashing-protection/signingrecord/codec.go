package signingrecord

import (
	"bytes"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
)

// ErrMalformedRecord is returned when persisted bytes cannot be decoded into a record.
var ErrMalformedRecord = errors.New("malformed signing record")

// signingRecordYAML is the on-disk layout of a signing record. A null value is the
// "never signed" sentinel.
type signingRecordYAML struct {
	GenesisValidatorsRoot            *hexutil.Bytes    `json:"genesisValidatorsRoot"`
	LastSignedBlockSlot              *primitives.Slot  `json:"lastSignedBlockSlot"`
	LastSignedAttestationSourceEpoch *primitives.Epoch `json:"lastSignedAttestationSourceEpoch"`
	LastSignedAttestationTargetEpoch *primitives.Epoch `json:"lastSignedAttestationTargetEpoch"`
}

// Marshal encodes the record as YAML.
func Marshal(r *SigningRecord) ([]byte, error) {
	if r == nil {
		return nil, errors.New("cannot marshal nil signing record")
	}
	enc := &signingRecordYAML{
		LastSignedBlockSlot:              r.blockSlot,
		LastSignedAttestationSourceEpoch: r.sourceEpoch,
		LastSignedAttestationTargetEpoch: r.targetEpoch,
	}
	if r.genesisValidatorsRoot != nil {
		root := hexutil.Bytes(r.genesisValidatorsRoot[:])
		enc.GenesisValidatorsRoot = &root
	}
	return yaml.Marshal(enc)
}

// Unmarshal decodes a record previously encoded with Marshal. Empty documents,
// unknown fields and malformed values are rejected with ErrMalformedRecord, so that
// damaged history is never mistaken for the absence of history.
func Unmarshal(enc []byte) (*SigningRecord, error) {
	if len(bytes.TrimSpace(enc)) == 0 {
		return nil, errors.Wrap(ErrMalformedRecord, "empty document")
	}
	j, err := yaml.YAMLToJSON(enc)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "invalid yaml: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()
	var raw signingRecordYAML
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "invalid fields: %v", err)
	}
	if raw.GenesisValidatorsRoot == nil &&
		raw.LastSignedBlockSlot == nil &&
		raw.LastSignedAttestationSourceEpoch == nil &&
		raw.LastSignedAttestationTargetEpoch == nil {
		return nil, errors.Wrap(ErrMalformedRecord, "no fields set")
	}
	if (raw.LastSignedAttestationSourceEpoch == nil) != (raw.LastSignedAttestationTargetEpoch == nil) {
		return nil, errors.Wrap(ErrMalformedRecord, "attestation source and target epochs must be set together")
	}
	r := &SigningRecord{
		blockSlot:   raw.LastSignedBlockSlot,
		sourceEpoch: raw.LastSignedAttestationSourceEpoch,
		targetEpoch: raw.LastSignedAttestationTargetEpoch,
	}
	if raw.GenesisValidatorsRoot != nil {
		if len(*raw.GenesisValidatorsRoot) != fieldparams.RootLength {
			return nil, errors.Wrapf(
				ErrMalformedRecord,
				"genesis validators root has length %d, want %d",
				len(*raw.GenesisValidatorsRoot),
				fieldparams.RootLength,
			)
		}
		var root [32]byte
		copy(root[:], *raw.GenesisValidatorsRoot)
		r.genesisValidatorsRoot = &root
	}
	return r, nil
}
