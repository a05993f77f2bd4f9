package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// Key prefixes for namespacing
const (
	keyPrefixSnapshot    = "whitelist:snapshot:"
	keyMeta              = "whitelist:meta"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a production-ready store implementation using Badger.
// Provides durable, disk-based storage with ACID guarantees.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IWhitelistStore = (*BadgerStore)(nil)

// NewBadgerStore creates a new Badger-backed store.
// The database is opened at the specified path with SyncWrites enabled for durability.
// A background goroutine is started for garbage collection.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	// Convert to absolute path
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Configure Badger for production use
	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true // Ensure durability (fsync on every write)
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1 // We don't need versioning within Badger

	// Open database
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	// Initialize schema version
	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Start background GC
	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			// First time setup - set schema version
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		// Validate existing schema version
		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Run value log GC with 0.5 discard ratio
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// snapshotKey builds the key for an epoch. The epoch is big-endian encoded
// so that lexicographic key order matches numeric epoch order.
func snapshotKey(epoch int64) []byte {
	key := make([]byte, len(keyPrefixSnapshot)+8)
	copy(key, keyPrefixSnapshot)
	binary.BigEndian.PutUint64(key[len(keyPrefixSnapshot):], uint64(epoch))
	return key
}

// SaveSnapshot persists a snapshot
func (b *BadgerStore) SaveSnapshot(snapshot *whitelist.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil Snapshot")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	// Serialize to JSON
	data, err := persistence.MarshalSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal Snapshot: %w", err)
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey(snapshot.Epoch), data)
	})
}

// LoadSnapshot retrieves a snapshot by epoch
func (b *BadgerStore) LoadSnapshot(epoch int64) (*whitelist.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(snapshotKey(epoch))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load Snapshot: %w", err)
	}

	if data == nil {
		return nil, nil // Not found
	}

	// Deserialize from JSON
	snapshot, err := persistence.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Snapshot: %w", err)
	}

	return snapshot, nil
}

// ListEpochs returns all snapshot epochs in ascending order
func (b *BadgerStore) ListEpochs() ([]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	epochs := make([]int64, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixSnapshot)
		opts.PrefetchValues = false // Keys are enough

		it := txn.NewIterator(opts)
		defer it.Close()

		// Iteration is in key order, and big-endian epoch encoding makes
		// that ascending epoch order.
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			suffix := key[len(keyPrefixSnapshot):]
			if len(suffix) != 8 {
				b.logger.Sugar().Warnw("Skipping malformed snapshot key", "key", string(key))
				continue
			}
			epochs = append(epochs, int64(binary.BigEndian.Uint64(suffix)))
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list epochs: %w", err)
	}

	return epochs, nil
}

// DeleteSnapshot removes a snapshot
func (b *BadgerStore) DeleteSnapshot(epoch int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(snapshotKey(epoch))
	})
}

// SaveMeta persists the metadata bundle
func (b *BadgerStore) SaveMeta(meta *persistence.Meta) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil Meta")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	// Serialize to JSON
	data, err := persistence.MarshalMeta(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal Meta: %w", err)
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyMeta), data)
	})
}

// LoadMeta retrieves the metadata bundle
func (b *BadgerStore) LoadMeta() (*persistence.Meta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load Meta: %w", err)
	}

	if data == nil {
		return nil, nil // Not found
	}

	// Deserialize from JSON
	meta, err := persistence.UnmarshalMeta(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Meta: %w", err)
	}

	return meta, nil
}

// Close shuts down the store
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	// Stop GC goroutine
	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	// Close database
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("store is closed")
	}

	// Try a simple read operation to verify database is accessible
	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
