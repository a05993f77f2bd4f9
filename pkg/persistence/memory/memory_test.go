package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

func testSnapshot(epoch int64) *whitelist.Snapshot {
	return &whitelist.Snapshot{
		RunID:       "run-1",
		Epoch:       epoch,
		Threshold:   11299.234,
		GeneratedAt: time.Now().UTC(),
		Addresses:   []string{"0xaa", "0xbb"},
		Entries: []whitelist.Entry{
			{
				Address:         "0xaa",
				State:           "Human",
				BaseStake:       20000,
				ByType:          map[string]float64{"3": 120.5},
				EpochStartStake: 20120.5,
			},
		},
		Excluded:   []whitelist.Exclusion{{Address: "0xcc", Reason: "Suspended identity"}},
		MerkleRoot: "0x74a53a",
	}
}

func TestMemoryStore_SaveLoadSnapshot(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	snapshot := testSnapshot(167)
	require.NoError(t, store.SaveSnapshot(snapshot))

	loaded, err := store.LoadSnapshot(167)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snapshot.Epoch, loaded.Epoch)
	assert.Equal(t, snapshot.Addresses, loaded.Addresses)
	assert.Equal(t, snapshot.MerkleRoot, loaded.MerkleRoot)
	assert.Equal(t, snapshot.Entries, loaded.Entries)
}

func TestMemoryStore_LoadSnapshot_NotFound(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	loaded, err := store.LoadSnapshot(999)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_SaveSnapshot_Nil(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	assert.Error(t, store.SaveSnapshot(nil))
}

func TestMemoryStore_DeepCopy(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	snapshot := testSnapshot(167)
	require.NoError(t, store.SaveSnapshot(snapshot))

	// Mutating the original must not affect the stored copy
	snapshot.Addresses[0] = "0xmutated"
	snapshot.Entries[0].ByType["3"] = -1

	loaded, err := store.LoadSnapshot(167)
	require.NoError(t, err)
	assert.Equal(t, "0xaa", loaded.Addresses[0])
	assert.Equal(t, 120.5, loaded.Entries[0].ByType["3"])

	// Mutating a loaded copy must not affect subsequent loads
	loaded.Addresses[1] = "0xmutated"
	reloaded, err := store.LoadSnapshot(167)
	require.NoError(t, err)
	assert.Equal(t, "0xbb", reloaded.Addresses[1])
}

func TestMemoryStore_ListEpochs(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	epochs, err := store.ListEpochs()
	require.NoError(t, err)
	assert.Empty(t, epochs)

	for _, epoch := range []int64{170, 165, 167} {
		require.NoError(t, store.SaveSnapshot(testSnapshot(epoch)))
	}

	epochs, err = store.ListEpochs()
	require.NoError(t, err)
	assert.Equal(t, []int64{165, 167, 170}, epochs)
}

func TestMemoryStore_DeleteSnapshot(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.SaveSnapshot(testSnapshot(167)))
	require.NoError(t, store.DeleteSnapshot(167))

	loaded, err := store.LoadSnapshot(167)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting a missing epoch is not an error
	require.NoError(t, store.DeleteSnapshot(167))
}

func TestMemoryStore_Meta(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	loaded, err := store.LoadMeta()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	meta := &persistence.Meta{
		DiscriminationStakeThreshold: 11299.234,
		Epoch:                        167,
		MerkleRoot:                   "0x74a53a",
	}
	require.NoError(t, store.SaveMeta(meta))

	loaded, err = store.LoadMeta()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *meta, *loaded)

	// Stored copy is independent of the caller's struct
	meta.Epoch = 999
	loaded, err = store.LoadMeta()
	require.NoError(t, err)
	assert.Equal(t, int64(167), loaded.Epoch)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SaveSnapshot(testSnapshot(167)))
	require.NoError(t, store.Close())

	assert.Error(t, store.SaveSnapshot(testSnapshot(168)))
	_, err := store.LoadSnapshot(167)
	assert.Error(t, err)
	_, err = store.ListEpochs()
	assert.Error(t, err)
	assert.Error(t, store.HealthCheck())

	// Close is idempotent
	require.NoError(t, store.Close())
}
