// Package eligibility implements the per-address whitelist filtering rules.
// Evaluation is pure: all chain data is gathered by the caller and passed
// in, so the rules can be tested and audited in isolation.
package eligibility

import (
	"fmt"

	"github.com/ubiubi18/whitelist-blueprint/pkg/idena"
)

// EligibleStates are the identity states admitted to the whitelist
var EligibleStates = map[string]struct{}{
	"Human":    {},
	"Newbie":   {},
	"Verified": {},
}

// Exclusion reasons. Kept verbatim from the published generator output so
// downstream log consumers keep working.
const (
	ReasonBadFlips        = "Penalized (bad flips)"
	ReasonPenalized       = "Penalized"
	ReasonNotApproved     = "Not approved"
	ReasonMissed          = "Missed validation"
	ReasonWrongGrades     = "Low score / wrong grades"
	ReasonCandidate       = "Candidate"
	ReasonSuspended       = "Suspended"
	ReasonNoInfo          = "No info found for address"
	ReasonNotPaidFallback = "Not paid / Candidate failed"
)

// Input carries everything the rules need for one address
type Input struct {
	Address string

	// BadAuthor is whether the address appears in the epoch's bad-flips list
	BadAuthor bool

	// Summary is the validation summary for the target epoch
	Summary *idena.ValidationSummary

	// RewardStake is the summed session reward stake across all reward types
	RewardStake float64

	// Threshold is the epoch's discrimination stake threshold
	Threshold float64
}

// Result is the outcome of evaluating one address
type Result struct {
	Eligible bool

	// Reason is the human-readable exclusion reason; empty when eligible
	Reason string

	// EpochStartStake is base stake plus session reward stake
	EpochStartStake float64
}

// Evaluate applies the whitelist rules in order; the first failing rule
// determines the exclusion reason.
func Evaluate(in Input) Result {
	summary := in.Summary
	baseStake := float64(summary.Stake)
	epochStartStake := baseStake + in.RewardStake

	reason := ""
	switch {
	case in.BadAuthor:
		reason = ReasonBadFlips
	case summary.Penalized:
		reason = ReasonPenalized
	case !summary.Approved:
		reason = ReasonNotApproved
	case summary.Missed:
		reason = ReasonMissed
	case summary.HasWrongGrades():
		reason = ReasonWrongGrades
	case summary.State == "Candidate":
		reason = ReasonCandidate
	case summary.State == "Suspended":
		reason = ReasonSuspended
	default:
		if _, ok := EligibleStates[summary.State]; !ok {
			reason = fmt.Sprintf("State not eligible (%s)", summary.State)
		} else if epochStartStake < in.Threshold {
			reason = fmt.Sprintf(
				"Stake below threshold (baseStake=%.4f, sessionRewards=%.4f, epochStartStake=%.4f, DiscriminationStakeThreshold=%.4f)",
				baseStake, in.RewardStake, epochStartStake, in.Threshold)
		}
	}

	return Result{
		Eligible:        reason == "",
		Reason:          reason,
		EpochStartStake: epochStartStake,
	}
}

// NotFoundReason builds the exclusion reason for addresses with no
// validation summary. state is the current identity state when known;
// empty means the identity lookup failed too.
func NotFoundReason(state string) string {
	if state == "" {
		return ReasonNotPaidFallback
	}
	return fmt.Sprintf("%s (state=%s)", ReasonNotPaidFallback, state)
}
