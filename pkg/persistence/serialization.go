package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

// MarshalSnapshot serializes a snapshot to JSON bytes.
func MarshalSnapshot(snapshot *whitelist.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("cannot marshal nil Snapshot")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Snapshot to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalSnapshot deserializes a snapshot from JSON bytes.
func UnmarshalSnapshot(data []byte) (*whitelist.Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var snapshot whitelist.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Snapshot: %w", err)
	}

	return &snapshot, nil
}

// MarshalMeta serializes the metadata bundle to JSON bytes.
func MarshalMeta(meta *Meta) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("cannot marshal nil Meta")
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Meta to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalMeta deserializes the metadata bundle from JSON bytes.
func UnmarshalMeta(data []byte) (*Meta, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Meta: %w", err)
	}

	return &meta, nil
}
