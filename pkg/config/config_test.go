package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeneratorConfig_IsValid(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*GeneratorConfig)
		wantErr string
	}{
		{
			name:    "missing API URL",
			mutate:  func(c *GeneratorConfig) { c.APIBaseURL = "" },
			wantErr: "apiBaseUrl",
		},
		{
			name:    "zero tx blocks",
			mutate:  func(c *GeneratorConfig) { c.RequiredTxBlocks = 0 },
			wantErr: "requiredTxBlocks",
		},
		{
			name:    "zero scan window",
			mutate:  func(c *GeneratorConfig) { c.BlockScanWindow = 0 },
			wantErr: "blockScanWindow",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *GeneratorConfig) { c.RequestsPerSecond = -1 },
			wantErr: "requestsPerSecond",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *GeneratorConfig) { c.DataDir = "" },
			wantErr: "dataDir",
		},
		{
			name:    "badger store without path",
			mutate:  func(c *GeneratorConfig) { c.Store = StoreTypeBadger },
			wantErr: "badgerPath",
		},
		{
			name:    "redis store without address",
			mutate:  func(c *GeneratorConfig) { c.Store = StoreTypeRedis },
			wantErr: "redisAddress",
		},
		{
			name:    "unknown store",
			mutate:  func(c *GeneratorConfig) { c.Store = StoreType("etcd") },
			wantErr: "store",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultGeneratorConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_StoreVariants(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Store = StoreTypeMemory
	require.NoError(t, cfg.Validate())

	cfg.Store = StoreTypeBadger
	cfg.BadgerPath = "/var/lib/whitelist"
	require.NoError(t, cfg.Validate())

	cfg.Store = StoreTypeRedis
	cfg.RedisAddress = "localhost:6379"
	require.NoError(t, cfg.Validate())
}
