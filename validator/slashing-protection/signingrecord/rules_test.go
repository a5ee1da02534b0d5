package signingrecord

import (
	"fmt"
	"testing"

	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
	"github.com/prysmaticlabs/slashprotect/testing/assert"
	"github.com/prysmaticlabs/slashprotect/testing/require"
)

var (
	genesisValidatorsRoot = [32]byte{0x56, 0x12, 0x34}
	otherValidatorsRoot   = [32]byte{0x01}
)

func TestMaySignBlock(t *testing.T) {
	existing := New(genesisValidatorsRoot).WithBlockSlot(3).WithAttestation(12, 15)
	tests := []struct {
		name    string
		prev    *SigningRecord
		slot    primitives.Slot
		allowed bool
		want    *SigningRecord
	}{
		{
			name:    "no existing record",
			prev:    nil,
			slot:    1,
			allowed: true,
			want:    New(genesisValidatorsRoot).WithBlockSlot(1),
		},
		{
			name:    "=",
			prev:    existing,
			slot:    3,
			allowed: false,
		},
		{
			name:    "<",
			prev:    existing,
			slot:    2,
			allowed: false,
		},
		{
			name:    ">",
			prev:    existing,
			slot:    4,
			allowed: true,
			want:    New(genesisValidatorsRoot).WithBlockSlot(4).WithAttestation(12, 15),
		},
		{
			name:    "record with attestations only",
			prev:    New(genesisValidatorsRoot).WithAttestation(4, 6),
			slot:    0,
			allowed: true,
			want:    New(genesisValidatorsRoot).WithBlockSlot(0).WithAttestation(4, 6),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := MaySignBlock(tt.prev, genesisValidatorsRoot, tt.slot)
			require.Equal(t, tt.allowed, decision.Allowed(), decision.Reason())
			if !tt.allowed {
				assert.IsNil(t, decision.Record(), "denied decisions must not produce a record")
				return
			}
			require.DeepEqual(t, tt.want, decision.Record())
		})
	}
}

func TestMaySignBlock_AllRelations(t *testing.T) {
	prev := New(genesisValidatorsRoot).WithBlockSlot(100)
	for p := primitives.Slot(95); p <= 105; p++ {
		decision := MaySignBlock(prev, genesisValidatorsRoot, p)
		assert.Equal(t, p > 100, decision.Allowed(), "slot %d", p)
	}
}

func TestMaySignAttestation(t *testing.T) {
	existing := New(genesisValidatorsRoot).WithBlockSlot(3).WithAttestation(4, 6)
	tests := []struct {
		source, target string
		sourceEpoch    primitives.Epoch
		targetEpoch    primitives.Epoch
		allowed        bool
	}{
		{source: "=", target: "=", sourceEpoch: 4, targetEpoch: 6, allowed: false},
		{source: "=", target: "<", sourceEpoch: 4, targetEpoch: 5, allowed: false},
		{source: "=", target: ">", sourceEpoch: 4, targetEpoch: 7, allowed: true},
		{source: "<", target: "=", sourceEpoch: 3, targetEpoch: 6, allowed: false},
		{source: "<", target: "<", sourceEpoch: 3, targetEpoch: 5, allowed: false},
		{source: "<", target: ">", sourceEpoch: 3, targetEpoch: 7, allowed: false},
		{source: ">", target: "=", sourceEpoch: 5, targetEpoch: 6, allowed: false},
		{source: ">", target: "<", sourceEpoch: 5, targetEpoch: 5, allowed: false},
		{source: ">", target: ">", sourceEpoch: 5, targetEpoch: 7, allowed: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("source %s, target %s", tt.source, tt.target), func(t *testing.T) {
			decision := MaySignAttestation(existing, genesisValidatorsRoot, tt.sourceEpoch, tt.targetEpoch)
			require.Equal(t, tt.allowed, decision.Allowed(), decision.Reason())
			if !tt.allowed {
				assert.IsNil(t, decision.Record())
				return
			}
			want := New(genesisValidatorsRoot).WithBlockSlot(3).WithAttestation(tt.sourceEpoch, tt.targetEpoch)
			require.DeepEqual(t, want, decision.Record())
		})
	}
}

func TestMaySignAttestation_NoExistingRecord(t *testing.T) {
	decision := MaySignAttestation(nil, genesisValidatorsRoot, 1, 2)
	require.Equal(t, true, decision.Allowed())

	record := decision.Record()
	_, ok := record.LastSignedBlockSlot()
	assert.Equal(t, false, ok, "first attestation must leave the block slot unsigned")
	source, ok := record.LastSignedAttestationSourceEpoch()
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Epoch(1), source)
	target, ok := record.LastSignedAttestationTargetEpoch()
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Epoch(2), target)
}

func TestMaySignAttestation_BlockOnlyRecord(t *testing.T) {
	prev := New(genesisValidatorsRoot).WithBlockSlot(9)
	decision := MaySignAttestation(prev, genesisValidatorsRoot, 0, 0)
	require.Equal(t, true, decision.Allowed(), decision.Reason())
	require.DeepEqual(t, New(genesisValidatorsRoot).WithBlockSlot(9).WithAttestation(0, 0), decision.Record())
}

func TestMaySign_LegacyRecordAdoptsGenesisValidatorsRoot(t *testing.T) {
	legacy := (&SigningRecord{}).WithBlockSlot(5)

	decision := MaySignBlock(legacy, genesisValidatorsRoot, 6)
	require.Equal(t, true, decision.Allowed())
	root, ok := decision.Record().GenesisValidatorsRoot()
	require.Equal(t, true, ok)
	assert.Equal(t, genesisValidatorsRoot, root)

	decision = MaySignAttestation(legacy, genesisValidatorsRoot, 1, 2)
	require.Equal(t, true, decision.Allowed())
	root, ok = decision.Record().GenesisValidatorsRoot()
	require.Equal(t, true, ok)
	assert.Equal(t, genesisValidatorsRoot, root)
}

func TestMaySign_KeepsStoredGenesisValidatorsRoot(t *testing.T) {
	prev := New(otherValidatorsRoot).WithBlockSlot(5)
	decision := MaySignBlock(prev, genesisValidatorsRoot, 6)
	require.Equal(t, true, decision.Allowed())
	root, ok := decision.Record().GenesisValidatorsRoot()
	require.Equal(t, true, ok)
	assert.Equal(t, otherValidatorsRoot, root)
}

func TestCheckGenesisValidatorsRoot(t *testing.T) {
	require.NoError(t, CheckGenesisValidatorsRoot(nil, genesisValidatorsRoot))
	require.NoError(t, CheckGenesisValidatorsRoot(New(genesisValidatorsRoot), genesisValidatorsRoot))
	require.NoError(t, CheckGenesisValidatorsRoot((&SigningRecord{}).WithBlockSlot(1), genesisValidatorsRoot))

	err := CheckGenesisValidatorsRoot(New(otherValidatorsRoot).WithBlockSlot(1), genesisValidatorsRoot)
	require.ErrorIs(t, err, ErrGenesisValidatorsRootMismatch)
	assert.ErrorContains(t, "0x5612340000", err)
}

func TestSigningRecord_BuildersDoNotMutate(t *testing.T) {
	base := New(genesisValidatorsRoot).WithBlockSlot(1)
	_ = base.WithBlockSlot(2)
	_ = base.WithAttestation(3, 4)
	_ = base.WithGenesisValidatorsRoot(otherValidatorsRoot)

	slot, ok := base.LastSignedBlockSlot()
	require.Equal(t, true, ok)
	assert.Equal(t, primitives.Slot(1), slot)
	_, ok = base.LastSignedAttestationTargetEpoch()
	assert.Equal(t, false, ok)
	root, _ := base.GenesisValidatorsRoot()
	assert.Equal(t, genesisValidatorsRoot, root)
}
