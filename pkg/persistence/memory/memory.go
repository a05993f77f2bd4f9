package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// MemoryStore is an in-memory implementation of IWhitelistStore, intended
// for tests and dry runs. All data is lost when the process exits.
// Thread-safe using sync.RWMutex; data is deep-copied on the way in and
// out to prevent external mutation.
type MemoryStore struct {
	mu sync.RWMutex

	// Snapshot storage: epoch -> Snapshot
	snapshots map[int64]*whitelist.Snapshot

	meta *persistence.Meta

	closed bool
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[int64]*whitelist.Snapshot),
	}
}

var _ persistence.IWhitelistStore = (*MemoryStore)(nil)

// SaveSnapshot persists a snapshot.
func (m *MemoryStore) SaveSnapshot(snapshot *whitelist.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil Snapshot")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	m.snapshots[snapshot.Epoch] = deepCopySnapshot(snapshot)
	return nil
}

// LoadSnapshot retrieves a snapshot by epoch.
func (m *MemoryStore) LoadSnapshot(epoch int64) (*whitelist.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	snapshot, exists := m.snapshots[epoch]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return deepCopySnapshot(snapshot), nil
}

// ListEpochs returns all snapshot epochs in ascending order.
func (m *MemoryStore) ListEpochs() ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	epochs := make([]int64, 0, len(m.snapshots))
	for epoch := range m.snapshots {
		epochs = append(epochs, epoch)
	}
	sort.Slice(epochs, func(i, j int) bool {
		return epochs[i] < epochs[j]
	})
	return epochs, nil
}

// DeleteSnapshot removes a snapshot.
func (m *MemoryStore) DeleteSnapshot(epoch int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	delete(m.snapshots, epoch)
	return nil
}

// SaveMeta persists the metadata bundle.
func (m *MemoryStore) SaveMeta(meta *persistence.Meta) error {
	if meta == nil {
		return fmt.Errorf("cannot save nil Meta")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	metaCopy := *meta
	m.meta = &metaCopy
	return nil
}

// LoadMeta retrieves the metadata bundle.
func (m *MemoryStore) LoadMeta() (*persistence.Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if m.meta == nil {
		return nil, nil
	}
	metaCopy := *m.meta
	return &metaCopy, nil
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// deepCopySnapshot copies a snapshot including its slices
func deepCopySnapshot(snapshot *whitelist.Snapshot) *whitelist.Snapshot {
	snapshotCopy := *snapshot

	snapshotCopy.Addresses = append([]string(nil), snapshot.Addresses...)
	snapshotCopy.Excluded = append([]whitelist.Exclusion(nil), snapshot.Excluded...)
	snapshotCopy.Errors = append([]whitelist.Exclusion(nil), snapshot.Errors...)

	if snapshot.Entries != nil {
		snapshotCopy.Entries = make([]whitelist.Entry, len(snapshot.Entries))
		for i, entry := range snapshot.Entries {
			entryCopy := entry
			if entry.ByType != nil {
				entryCopy.ByType = make(map[string]float64, len(entry.ByType))
				for k, v := range entry.ByType {
					entryCopy.ByType[k] = v
				}
			}
			snapshotCopy.Entries[i] = entryCopy
		}
	}

	return &snapshotCopy
}
