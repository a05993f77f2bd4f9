package persistence

import "github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"

// IWhitelistStore defines the interface for persisting whitelist snapshots
// and the published metadata bundle. All implementations must be
// thread-safe.
//
// The interface supports:
// - Snapshot management per epoch (save, load, list, delete)
// - The metadata bundle (threshold, epoch, merkle root) as one unit
// - Lifecycle management (close, health check)
type IWhitelistStore interface {
	// Snapshot Management

	// SaveSnapshot persists a snapshot indexed by its epoch.
	// Overwrites any existing snapshot for the same epoch.
	SaveSnapshot(snapshot *whitelist.Snapshot) error

	// LoadSnapshot retrieves a snapshot by epoch.
	// Returns nil if none exists, error only on storage failure.
	LoadSnapshot(epoch int64) (*whitelist.Snapshot, error)

	// ListEpochs returns the epochs of all persisted snapshots in
	// ascending order. Empty slice when none exist.
	ListEpochs() ([]int64, error)

	// DeleteSnapshot removes a snapshot by epoch.
	// Idempotent - returns nil if none exists.
	DeleteSnapshot(epoch int64) error

	// Metadata Bundle

	// SaveMeta persists the metadata bundle. The bundle is written as a
	// unit: a recomputed root always lands together with its threshold
	// and epoch, never as a partial update.
	SaveMeta(meta *Meta) error

	// LoadMeta retrieves the metadata bundle.
	// Returns nil if none exists, error only on storage failure.
	LoadMeta() (*Meta, error)

	// Lifecycle Management

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational.
	// Returns nil if healthy. Should be called during startup to fail fast.
	HealthCheck() error
}
