package merkle

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrEmptyInput is returned when a tree is requested over zero addresses.
	// An empty list has no root; callers must not substitute a sentinel digest.
	ErrEmptyInput = errors.New("cannot build merkle tree from empty address list")

	// ErrIndexOutOfRange is returned when a proof is requested for an index
	// outside the leaf range. Indices are never clamped.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	// ErrInvalidProofStep is returned when a proof entry carries an unknown
	// orientation tag or an undecodable digest. It is distinct from a plain
	// verification mismatch, which is reported as false with a nil error.
	ErrInvalidProofStep = errors.New("invalid proof step")
)

// HashAddress canonicalizes an address string and hashes it into a leaf
// digest: keccak256 of the lowercased address bytes. The case fold is plain
// ASCII lowercasing, so two addresses differing only in letter case map to
// the same leaf. The address is not validated; any string is accepted.
func HashAddress(address string) [32]byte {
	return [32]byte(crypto.Keccak256Hash([]byte(strings.ToLower(address))))
}

// BuildTree creates a binary merkle tree from an ordered address list.
// Order is significant: the builder does not sort, so reordering the input
// changes the root. Callers wanting a sort-invariant commitment must sort
// before calling.
//
// If a level has an odd number of nodes, the last node is hashed with a
// copy of itself. This duplicate-last rule is a fixed protocol detail of
// the published roots and is not interchangeable with schemes that promote
// the odd node unchanged.
func BuildTree(addresses []string) (*Tree, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyInput
	}

	leaves := make([][32]byte, len(addresses))
	for i, addr := range addresses {
		leaves[i] = HashAddress(addr)
	}

	levels := make([][][32]byte, 0)
	levels = append(levels, leaves)

	currentLevel := leaves
	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			left := currentLevel[i]
			right := left
			if i+1 < len(currentLevel) {
				right = currentLevel[i+1]
			}
			nextLevel = append(nextLevel, hashPair(left, right))
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &Tree{
		Leaves: leaves,
		levels: levels,
	}, nil
}

// Root returns the merkle root digest. For a single-address tree the root
// equals that address's leaf digest; no self-pairing happens at the top.
func (t *Tree) Root() [32]byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the root in its published representation:
// "0x" followed by lowercase hex.
func (t *Tree) RootHex() string {
	root := t.Root()
	return "0x" + hex.EncodeToString(root[:])
}

// GenerateProof creates a merkle proof for the leaf at the given index.
// Steps are ordered leaf to root. At each level the sibling of the tracked
// node is recorded: an even index pairs with index+1 (or with itself when
// it is the unmatched last node) and the sibling sits on the right; an odd
// index pairs with index-1 and the sibling sits on the left. The tracked
// index then halves into the next level.
func (t *Tree) GenerateProof(leafIndex int) (*Proof, error) {
	if leafIndex < 0 || leafIndex >= len(t.Leaves) {
		return nil, ErrIndexOutOfRange
	}

	steps := make([]ProofStep, 0, len(t.levels)-1)
	index := leafIndex

	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		if index%2 == 0 {
			siblingIndex := index + 1
			if siblingIndex >= len(currentLevel) {
				// Unmatched last node: its pair partner is its own duplicate
				siblingIndex = index
			}
			steps = append(steps, ProofStep{
				Sibling:     currentLevel[siblingIndex],
				Orientation: Right,
			})
		} else {
			steps = append(steps, ProofStep{
				Sibling:     currentLevel[index-1],
				Orientation: Left,
			})
		}

		index = index / 2
	}

	return &Proof{
		LeafIndex: leafIndex,
		Leaf:      t.Leaves[leafIndex],
		Steps:     steps,
	}, nil
}

// VerifyProof checks that a leaf digest is committed under the given root.
// It folds the proof steps in order, using the recorded orientation rather
// than any index bookkeeping, so a proof received from an untrusted source
// is self-contained. Returns false on any mismatch.
func VerifyProof(leaf [32]byte, proof *Proof, root [32]byte) bool {
	if proof == nil {
		return false
	}

	acc := leaf
	for _, step := range proof.Steps {
		switch step.Orientation {
		case Left:
			acc = hashPair(step.Sibling, acc)
		case Right:
			acc = hashPair(acc, step.Sibling)
		default:
			return false
		}
	}

	return acc == root
}

// VerifyProofHex verifies a proof in its wire representation against a
// "0x"-prefixed root string. Root comparison is case-insensitive. A step
// with an unrecognized orientation tag or a malformed sibling digest fails
// with ErrInvalidProofStep; a well-formed proof that simply does not fold
// to the root returns (false, nil).
func VerifyProofHex(leaf [32]byte, steps []ProofStep, rootHex string) (bool, error) {
	acc := leaf
	for _, step := range steps {
		switch step.Orientation {
		case Left:
			acc = hashPair(step.Sibling, acc)
		case Right:
			acc = hashPair(acc, step.Sibling)
		default:
			return false, ErrInvalidProofStep
		}
	}

	want, err := parseRootHex(rootHex)
	if err != nil {
		return false, err
	}
	return acc == want, nil
}

// parseRootHex decodes a "0x"-prefixed 32-byte hex string, accepting
// either letter case.
func parseRootHex(rootHex string) ([32]byte, error) {
	var root [32]byte
	s := strings.ToLower(rootHex)
	if !strings.HasPrefix(s, "0x") {
		return root, ErrInvalidProofStep
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil || len(raw) != 32 {
		return root, ErrInvalidProofStep
	}
	copy(root[:], raw)
	return root, nil
}

// hashPair computes keccak256(left || right) for two 32-byte digests.
func hashPair(left, right [32]byte) [32]byte {
	data := make([]byte, 64)
	copy(data[0:32], left[:])
	copy(data[32:64], right[:])

	return [32]byte(crypto.Keccak256Hash(data))
}
