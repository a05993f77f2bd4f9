package whitelist

import (
	"errors"
	"strings"

	"github.com/ubiubi18/whitelist-blueprint/pkg/merkle"
)

// ErrNotWhitelisted is returned when a proof is requested for an address
// absent from the whitelist.
var ErrNotWhitelisted = errors.New("address is not on the whitelist")

// IndexOf finds an address in a whitelist, case-insensitively.
// Returns -1 when absent.
func IndexOf(addresses []string, address string) int {
	needle := strings.ToLower(address)
	for i, addr := range addresses {
		if strings.ToLower(addr) == needle {
			return i
		}
	}
	return -1
}

// ProofFor builds the merkle proof of one address against a whitelist.
// The address lookup is case-insensitive; the proof is for the leaf digest
// of the stored address, which is identical to that of the queried one.
func ProofFor(addresses []string, address string) (*merkle.Proof, error) {
	index := IndexOf(addresses, address)
	if index < 0 {
		return nil, ErrNotWhitelisted
	}

	tree, err := merkle.BuildTree(addresses)
	if err != nil {
		return nil, err
	}
	return tree.GenerateProof(index)
}

// CheckMembership proves and verifies one address against a published
// root, returning the proof on success. The verification closes the loop:
// a stale or mismatched whitelist file yields ok == false rather than a
// bogus proof.
func CheckMembership(addresses []string, address string, rootHex string) (bool, *merkle.Proof, error) {
	proof, err := ProofFor(addresses, address)
	if err != nil {
		return false, nil, err
	}

	ok, err := merkle.VerifyProofHex(proof.Leaf, proof.Steps, rootHex)
	if err != nil {
		return false, nil, err
	}
	return ok, proof, nil
}
