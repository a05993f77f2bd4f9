package merkle

// Orientation records on which side a proof sibling sits when folding
// towards the root.
type Orientation string

const (
	// Left means the sibling is the left operand: parent = keccak256(sibling || node)
	Left Orientation = "left"

	// Right means the sibling is the right operand: parent = keccak256(node || sibling)
	Right Orientation = "right"
)

// Tree represents a binary merkle tree built over an ordered address list.
// The tree uses keccak256 hashing so published roots can be re-verified
// with any standard Ethereum tooling.
type Tree struct {
	// Leaves contains the leaf digests in input order
	Leaves [][32]byte

	// levels stores all tree levels for proof generation
	// levels[0] = leaves, levels[len-1] = root level (length 1)
	levels [][][32]byte
}

// ProofStep is one element of a merkle proof: the sibling digest at one
// tree level plus its orientation relative to the node being proven.
type ProofStep struct {
	Sibling     [32]byte
	Orientation Orientation
}

// Proof represents a proof that a leaf is included in the tree.
// Steps are ordered leaf to root and must be replayed in that order.
type Proof struct {
	// LeafIndex is the index of the leaf in the original address list
	LeafIndex int

	// Leaf is the digest of the leaf being proven
	Leaf [32]byte

	// Steps contains the sibling digests from leaf to root
	Steps []ProofStep
}
