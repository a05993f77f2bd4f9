package persistence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

func TestMarshalUnmarshalSnapshot(t *testing.T) {
	snapshot := &whitelist.Snapshot{
		RunID:       "a13f2c4e",
		Epoch:       167,
		Threshold:   11299.234,
		GeneratedAt: time.Date(2025, 4, 19, 13, 30, 0, 0, time.UTC),
		Addresses:   []string{"0xaa", "0xbb"},
		Entries: []whitelist.Entry{
			{
				Address:            "0xaa",
				State:              "Human",
				BaseStake:          20000,
				SessionStakeReward: 120.5,
				ByType:             map[string]float64{"3": 120.5},
				EpochStartStake:    20120.5,
			},
		},
		Excluded:   []whitelist.Exclusion{{Address: "0xcc", Reason: "Suspended identity"}},
		MerkleRoot: "0x74a53a",
	}

	data, err := MarshalSnapshot(snapshot)
	require.NoError(t, err)

	restored, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot, restored)
}

func TestMarshalSnapshot_Nil(t *testing.T) {
	_, err := MarshalSnapshot(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Snapshot")
}

func TestUnmarshalSnapshot_Invalid(t *testing.T) {
	_, err := UnmarshalSnapshot(nil)
	require.Error(t, err)

	_, err = UnmarshalSnapshot([]byte("{not json"))
	require.Error(t, err)
}

func TestMarshalMeta_FieldNames(t *testing.T) {
	meta := &Meta{
		DiscriminationStakeThreshold: 11299.234,
		Epoch:                        167,
		MerkleRoot:                   "0x74a53a",
	}

	data, err := MarshalMeta(meta)
	require.NoError(t, err)

	// The published artifact field names are load-bearing for downstream
	// verifiers and must survive struct refactors.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "DiscriminationStakeThreshold")
	assert.Contains(t, raw, "epoch")
	assert.Contains(t, raw, "merkleRoot")

	restored, err := UnmarshalMeta(data)
	require.NoError(t, err)
	assert.Equal(t, meta, restored)
}

func TestMarshalMeta_Nil(t *testing.T) {
	_, err := MarshalMeta(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Meta")
}
