package whitelist

import "time"

// Entry is the per-address detail record of a whitelisted identity,
// matching the JSONL artifact schema of published runs.
type Entry struct {
	Address            string             `json:"address"`
	State              string             `json:"state"`
	BaseStake          float64            `json:"baseStake"`
	SessionStakeReward float64            `json:"sessionStakeRewardsSum"`
	ByType             map[string]float64 `json:"byType,omitempty"`
	EpochStartStake    float64            `json:"epochStartStake"`
}

// Exclusion records why an address was kept off the whitelist
type Exclusion struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// Snapshot is the complete result of one whitelist generation run:
// the ordered whitelist, its merkle commitment, and the inputs needed to
// reproduce it.
type Snapshot struct {
	// RunID uniquely identifies the generation run
	RunID string `json:"runId"`

	Epoch int64 `json:"epoch"`

	// Threshold is the discrimination stake threshold the run used
	Threshold float64 `json:"discriminationStakeThreshold"`

	GeneratedAt time.Time `json:"generatedAt"`

	// Addresses is the final ordered whitelist. The order is the
	// commitment order: the merkle root is only reproducible from this
	// exact sequence.
	Addresses []string `json:"addresses"`

	Entries  []Entry     `json:"entries,omitempty"`
	Excluded []Exclusion `json:"excluded,omitempty"`

	// Errors lists addresses whose eligibility could not be determined
	Errors []Exclusion `json:"errors,omitempty"`

	// MerkleRoot is the 0x-prefixed lowercase hex commitment over Addresses
	MerkleRoot string `json:"merkleRoot"`
}

// EpochCount is one row of the historic per-epoch summary
type EpochCount struct {
	Epoch         int64
	EligibleCount int
}
