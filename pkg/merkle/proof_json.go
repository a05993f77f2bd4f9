package merkle

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// The published proof format is an ordered array of single-key records,
// each {"left": "<hex>"} or {"right": "<hex>"} with unprefixed hex. This
// file keeps the Go types compatible with proofs already in circulation.

// MarshalJSON encodes a step as a single-key record keyed by orientation.
func (s ProofStep) MarshalJSON() ([]byte, error) {
	switch s.Orientation {
	case Left, Right:
		return json.Marshal(map[string]string{
			string(s.Orientation): hex.EncodeToString(s.Sibling[:]),
		})
	default:
		return nil, fmt.Errorf("%w: unknown orientation %q", ErrInvalidProofStep, s.Orientation)
	}
}

// UnmarshalJSON decodes a single-key record. A record with zero or more
// than one key, an unrecognized orientation tag, or a sibling that is not
// exactly 32 hex-encoded bytes fails with ErrInvalidProofStep.
func (s *ProofStep) UnmarshalJSON(data []byte) error {
	var record map[string]string
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProofStep, err)
	}
	if len(record) != 1 {
		return fmt.Errorf("%w: expected exactly one orientation key, got %d", ErrInvalidProofStep, len(record))
	}

	for tag, siblingHex := range record {
		switch Orientation(tag) {
		case Left, Right:
		default:
			return fmt.Errorf("%w: unknown orientation %q", ErrInvalidProofStep, tag)
		}

		raw, err := hex.DecodeString(siblingHex)
		if err != nil {
			return fmt.Errorf("%w: bad sibling digest: %v", ErrInvalidProofStep, err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("%w: sibling digest is %d bytes, want 32", ErrInvalidProofStep, len(raw))
		}

		s.Orientation = Orientation(tag)
		copy(s.Sibling[:], raw)
	}
	return nil
}

// MarshalJSON emits the bare step array, which is the artifact format
// consumed by third-party checkers. Leaf index and digest are derivable
// from the whitelist itself and are not part of the wire proof.
func (p *Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Steps)
}

// UnmarshalJSON parses a bare step array into the proof. LeafIndex and
// Leaf are left zero; verification against an untrusted proof only needs
// the steps.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var steps []ProofStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return err
	}
	p.Steps = steps
	return nil
}
