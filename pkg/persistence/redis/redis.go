package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixSnapshot    = "wl:snapshot:"
	keyMeta              = "wl:meta"
	keySchemaVersion     = "wl:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetSnapshots = "wl:snapshots:index"
)

// RedisStore is a production-ready store implementation using Redis.
// Provides durable, distributed storage suitable for cloud-native deployments.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IWhitelistStore = (*RedisStore)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant setups).
	// If set, this prefix is prepended to all keys, e.g., "myapp:" would result in
	// keys like "myapp:wl:snapshot:167". If empty, keys use the default "wl:" prefix.
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	// Create Redis client options
	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	// Create Redis client
	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	// Initialize schema version
	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.KeyPrefix != "" {
		logger.Sugar().Infow("Redis store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	} else {
		logger.Sugar().Infow("Redis store initialized", "address", cfg.Address, "db", cfg.DB)
	}

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	// Check if schema version exists
	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		// First time setup - set schema version
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	// Validate existing schema version
	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveSnapshot persists a snapshot
func (r *RedisStore) SaveSnapshot(snapshot *whitelist.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil Snapshot")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	ctx := context.Background()

	// Serialize to JSON
	data, err := persistence.MarshalSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal Snapshot: %w", err)
	}

	// Store in Redis using a pipeline for atomicity
	key := r.prefixKey(fmt.Sprintf("%s%d", keyPrefixSnapshot, snapshot.Epoch))
	indexKey := r.prefixKey(keySetSnapshots)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, snapshot.Epoch) // Add to index set

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save Snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot retrieves a snapshot by epoch
func (r *RedisStore) LoadSnapshot(epoch int64) (*whitelist.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(fmt.Sprintf("%s%d", keyPrefixSnapshot, epoch))

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Snapshot: %w", err)
	}

	// Deserialize from JSON
	snapshot, err := persistence.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Snapshot: %w", err)
	}

	return snapshot, nil
}

// ListEpochs returns all snapshot epochs in ascending order
func (r *RedisStore) ListEpochs() ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetSnapshots)

	// Get all epochs from the index set
	members, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot epochs: %w", err)
	}

	epochs := make([]int64, 0, len(members))
	for _, member := range members {
		epoch, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			r.logger.Sugar().Warnw("Skipping malformed epoch index entry", "member", member)
			continue
		}
		epochs = append(epochs, epoch)
	}

	// Sort by epoch (ascending)
	sort.Slice(epochs, func(i, j int) bool {
		return epochs[i] < epochs[j]
	})

	return epochs, nil
}

// DeleteSnapshot removes a snapshot
func (r *RedisStore) DeleteSnapshot(epoch int64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(fmt.Sprintf("%s%d", keyPrefixSnapshot, epoch))
	indexKey := r.prefixKey(keySetSnapshots)

	// Delete using pipeline
	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, indexKey, epoch) // Remove from index set

	_, err := pipe.Exec(ctx)
	return err
}

// SaveMeta persists the metadata bundle
func (r *RedisStore) SaveMeta(meta *persistence.Meta) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil Meta")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(keyMeta)

	// Serialize to JSON
	data, err := persistence.MarshalMeta(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal Meta: %w", err)
	}

	return r.client.Set(ctx, key, data, 0).Err()
}

// LoadMeta retrieves the metadata bundle
func (r *RedisStore) LoadMeta() (*persistence.Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("store is closed")
	}

	ctx := context.Background()
	key := r.prefixKey(keyMeta)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Meta: %w", err)
	}

	// Deserialize from JSON
	meta, err := persistence.UnmarshalMeta(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Meta: %w", err)
	}

	return meta, nil
}

// Close shuts down the store
func (r *RedisStore) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	// Close Redis client
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ping Redis to check connectivity
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	// Verify schema version exists
	schemaKey := r.prefixKey(keySchemaVersion)
	_, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
