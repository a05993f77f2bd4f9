package redis

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubiubi18/whitelist-blueprint/pkg/logger"
	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not available
func requireRedis(t *testing.T) *RedisStore {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address: getTestRedisAddress(),
		DB:      15, // Use DB 15 for tests to avoid conflicts
		// Isolate each test run so leftover keys never bleed between tests
		KeyPrefix: fmt.Sprintf("test:%d:", time.Now().UnixNano()),
	}

	rs, err := NewRedisStore(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}

	return rs
}

func sampleSnapshot(epoch int64) *whitelist.Snapshot {
	return &whitelist.Snapshot{
		RunID:       "a13f2c4e",
		Epoch:       epoch,
		Threshold:   11299.234,
		GeneratedAt: time.Date(2025, 4, 19, 13, 30, 0, 0, time.UTC),
		Addresses:   []string{"0xaa", "0xbb"},
		MerkleRoot:  "0x74a53a",
	}
}

func TestRedisStore_SaveAndLoadSnapshot(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	snapshot := sampleSnapshot(167)
	require.NoError(t, rs.SaveSnapshot(snapshot))

	loaded, err := rs.LoadSnapshot(167)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snapshot.Epoch, loaded.Epoch)
	assert.Equal(t, snapshot.Addresses, loaded.Addresses)
	assert.Equal(t, snapshot.MerkleRoot, loaded.MerkleRoot)
	assert.True(t, snapshot.GeneratedAt.Equal(loaded.GeneratedAt))
}

func TestRedisStore_LoadSnapshot_NotFound(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	loaded, err := rs.LoadSnapshot(9999999)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_SaveSnapshot_Nil(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	err := rs.SaveSnapshot(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Snapshot")
}

func TestRedisStore_ListEpochs(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	epochs, err := rs.ListEpochs()
	require.NoError(t, err)
	assert.Empty(t, epochs)

	for _, epoch := range []int64{170, 165, 167} {
		require.NoError(t, rs.SaveSnapshot(sampleSnapshot(epoch)))
	}

	epochs, err = rs.ListEpochs()
	require.NoError(t, err)
	assert.Equal(t, []int64{165, 167, 170}, epochs)
}

func TestRedisStore_DeleteSnapshot(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	require.NoError(t, rs.SaveSnapshot(sampleSnapshot(167)))
	require.NoError(t, rs.DeleteSnapshot(167))

	loaded, err := rs.LoadSnapshot(167)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	epochs, err := rs.ListEpochs()
	require.NoError(t, err)
	assert.Empty(t, epochs)

	// Deleting again is idempotent
	require.NoError(t, rs.DeleteSnapshot(167))
}

func TestRedisStore_Meta(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	loaded, err := rs.LoadMeta()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	meta := &persistence.Meta{
		DiscriminationStakeThreshold: 11299.234,
		Epoch:                        167,
		MerkleRoot:                   "0x74a53a",
	}
	require.NoError(t, rs.SaveMeta(meta))

	loaded, err = rs.LoadMeta()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *meta, *loaded)
}

func TestRedisStore_Close(t *testing.T) {
	rs := requireRedis(t)

	require.NoError(t, rs.Close())
	// Idempotent
	require.NoError(t, rs.Close())

	assert.Error(t, rs.SaveSnapshot(sampleSnapshot(167)))
	_, err := rs.LoadSnapshot(167)
	assert.Error(t, err)
	assert.Error(t, rs.HealthCheck())
}

func TestRedisStore_HealthCheck(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	require.NoError(t, rs.HealthCheck())
}

func TestNewRedisStore_InvalidConfig(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisStore(nil, testLogger)
	require.Error(t, err)

	_, err = NewRedisStore(&RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}
