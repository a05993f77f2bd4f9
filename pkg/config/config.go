package config

import (
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the whitelist generator
const (
	EnvAPIBaseURL   = "WLGEN_API_URL"
	EnvDataDir      = "WLGEN_DATA_DIR"
	EnvEpoch        = "WLGEN_EPOCH"
	EnvLookBack     = "WLGEN_LOOK_BACK"
	EnvStoreType    = "WLGEN_STORE"
	EnvBadgerPath   = "WLGEN_BADGER_PATH"
	EnvRedisAddress = "WLGEN_REDIS_ADDRESS"
	EnvVerbose      = "WLGEN_VERBOSE"
)

// Defaults mirroring the published generator runs
const (
	// DefaultAPIBaseURL is the public Idena indexer API
	DefaultAPIBaseURL = "https://api.idena.io"

	// DefaultRequiredTxBlocks is how many non-empty short-session blocks are
	// scanned for validation transactions
	DefaultRequiredTxBlocks = 7

	// DefaultBlockScanWindow bounds the search for the ShortSessionStarted
	// flag after validationFirstBlockHeight+15
	DefaultBlockScanWindow = 20

	// DefaultRequestsPerSecond throttles calls against the public API
	DefaultRequestsPerSecond = 5

	DefaultRequestTimeout = 15 * time.Second
)

// StoreType selects the snapshot persistence backend
type StoreType string

const (
	StoreTypeNone   StoreType = ""
	StoreTypeMemory StoreType = "memory"
	StoreTypeBadger StoreType = "badger"
	StoreTypeRedis  StoreType = "redis"
)

// GeneratorConfig represents the complete configuration for a whitelist
// generation run
type GeneratorConfig struct {
	// API client
	APIBaseURL        string        `json:"api_base_url"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	RequestsPerSecond float64       `json:"requests_per_second"`

	// Address collection
	RequiredTxBlocks int `json:"required_tx_blocks"`
	BlockScanWindow  int `json:"block_scan_window"`

	// Target selection. Epoch <= 0 means "latest finalized epoch"
	// (last epoch - 1); LookBack > 0 switches to historic mode.
	Epoch    int64 `json:"epoch"`
	LookBack int   `json:"look_back"`

	// Artifact and store output
	DataDir      string    `json:"data_dir"`
	Store        StoreType `json:"store"`
	BadgerPath   string    `json:"badger_path"`
	RedisAddress string    `json:"redis_address"`

	Verbose bool `json:"verbose"`
}

// DefaultGeneratorConfig returns a config with production defaults
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		APIBaseURL:        DefaultAPIBaseURL,
		RequestTimeout:    DefaultRequestTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		RequiredTxBlocks:  DefaultRequiredTxBlocks,
		BlockScanWindow:   DefaultBlockScanWindow,
		DataDir:           ".",
	}
}

// Validate validates the generator configuration
func (c *GeneratorConfig) Validate() error {
	var allErrors field.ErrorList

	if c.APIBaseURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("apiBaseUrl"), "API base URL is required"))
	}
	if c.RequiredTxBlocks < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requiredTxBlocks"), c.RequiredTxBlocks, "must be at least 1"))
	}
	if c.BlockScanWindow < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("blockScanWindow"), c.BlockScanWindow, "must be at least 1"))
	}
	if c.RequestsPerSecond <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSecond"), c.RequestsPerSecond, "must be positive"))
	}
	if c.DataDir == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("dataDir"), "data directory is required"))
	}

	switch c.Store {
	case StoreTypeNone, StoreTypeMemory:
	case StoreTypeBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badger path is required for the badger store"))
		}
	case StoreTypeRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redis address is required for the redis store"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("store"), c.Store,
			[]StoreType{StoreTypeNone, StoreTypeMemory, StoreTypeBadger, StoreTypeRedis}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
