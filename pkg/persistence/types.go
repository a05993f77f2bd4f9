package persistence

// Meta is the published metadata bundle. Field names match the
// whitelist_meta.json artifact consumed by downstream verifiers, so they
// must not change.
type Meta struct {
	// DiscriminationStakeThreshold is the stake threshold of the run
	DiscriminationStakeThreshold float64 `json:"DiscriminationStakeThreshold"`

	// Epoch is the epoch the whitelist was generated for
	Epoch int64 `json:"epoch"`

	// MerkleRoot is the 0x-prefixed root committed over the whitelist
	MerkleRoot string `json:"merkleRoot"`
}
