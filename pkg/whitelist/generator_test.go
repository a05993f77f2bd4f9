package whitelist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ubiubi18/whitelist-blueprint/pkg/collector"
	"github.com/ubiubi18/whitelist-blueprint/pkg/eligibility"
	"github.com/ubiubi18/whitelist-blueprint/pkg/idena"
	"github.com/ubiubi18/whitelist-blueprint/pkg/merkle"
)

const (
	addrEligible   = "0xAA00000000000000000000000000000000000001"
	addrRich       = "0xAA00000000000000000000000000000000000002"
	addrBadFlips   = "0xAA00000000000000000000000000000000000003"
	addrPoor       = "0xAA00000000000000000000000000000000000004"
	addrNoSummary  = "0xAA00000000000000000000000000000000000005"
	addrSuspended  = "0xAA00000000000000000000000000000000000006"
)

// newGeneratorFixture wires a stub indexer for epoch 160 with six
// candidates covering the main eligibility branches.
func newGeneratorFixture(t *testing.T) (*Generator, *idena.StubClient) {
	t.Helper()

	stub := idena.NewStubClient()
	stub.LastEpochInfo = &idena.EpochInfo{Epoch: 162}
	stub.Epochs[160] = &idena.EpochInfo{Epoch: 160, ValidationFirstBlockHeight: 1000}
	stub.Epochs[161] = &idena.EpochInfo{Epoch: 161, DiscriminationStakeThreshold: 1500}

	stub.Flags[1015] = []string{collector.ShortSessionFlag}
	stub.Txs[1015] = []idena.Transaction{
		{From: addrEligible}, {From: addrRich}, {From: addrBadFlips},
		{From: addrPoor}, {From: addrNoSummary}, {From: addrSuspended},
	}

	stub.Bad[160] = map[string]struct{}{
		"0xaa00000000000000000000000000000000000003": {},
	}

	human := func(stake float64) *idena.ValidationSummary {
		return &idena.ValidationSummary{State: "Human", Approved: true, Stake: idena.Amount(stake)}
	}
	stub.Summaries["0xaa00000000000000000000000000000000000001"] = human(1400)
	stub.Summaries["0xaa00000000000000000000000000000000000002"] = human(99999)
	stub.Summaries["0xaa00000000000000000000000000000000000003"] = human(99999)
	stub.Summaries["0xaa00000000000000000000000000000000000004"] = human(100)
	stub.Summaries["0xaa00000000000000000000000000000000000006"] = &idena.ValidationSummary{
		State: "Suspended", Approved: true, Stake: 99999,
	}

	stub.Identities["0xaa00000000000000000000000000000000000005"] = &idena.Identity{State: "Candidate"}

	// Session rewards lift the borderline identity over the threshold
	stub.Rewards["0xaa00000000000000000000000000000000000001"] = []idena.Reward{
		{Type: "Validation", Stake: 80},
		{Type: "Flips", Stake: 40},
	}

	logger := zaptest.NewLogger(t)
	c := collector.New(stub, collector.Config{RequiredTxBlocks: 1}, logger)
	return NewGenerator(stub, c, logger), stub
}

func TestGenerateForEpoch(t *testing.T) {
	g, _ := newGeneratorFixture(t)

	snapshot, err := g.GenerateForEpoch(context.Background(), 160)
	require.NoError(t, err)

	assert.Equal(t, int64(160), snapshot.Epoch)
	assert.Equal(t, 1500.0, snapshot.Threshold)
	assert.NotEmpty(t, snapshot.RunID)

	// Collection sorts candidates, so the whitelist preserves that order
	require.Equal(t, []string{addrEligible, addrRich}, snapshot.Addresses)

	// The committed root must match an independent build over the list
	tree, err := merkle.BuildTree(snapshot.Addresses)
	require.NoError(t, err)
	assert.Equal(t, tree.RootHex(), snapshot.MerkleRoot)

	// Borderline identity: base 1400 + rewards 120 = 1520 >= 1500
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, 1400.0, snapshot.Entries[0].BaseStake)
	assert.Equal(t, 120.0, snapshot.Entries[0].SessionStakeReward)
	assert.Equal(t, 1520.0, snapshot.Entries[0].EpochStartStake)
	assert.Equal(t, map[string]float64{"Validation": 80, "Flips": 40}, snapshot.Entries[0].ByType)

	exclusions := make(map[string]string)
	for _, e := range snapshot.Excluded {
		exclusions[e.Address] = e.Reason
	}
	assert.Equal(t, eligibility.ReasonBadFlips, exclusions[addrBadFlips])
	assert.Contains(t, exclusions[addrPoor], "Stake below threshold")
	assert.Equal(t, "Not paid / Candidate failed (state=Candidate)", exclusions[addrNoSummary])
	assert.Equal(t, eligibility.ReasonSuspended, exclusions[addrSuspended])

	assert.Empty(t, snapshot.Errors)
}

func TestGenerateForEpoch_NoSummaryNoIdentity(t *testing.T) {
	g, stub := newGeneratorFixture(t)
	delete(stub.Identities, "0xaa00000000000000000000000000000000000005")

	snapshot, err := g.GenerateForEpoch(context.Background(), 160)
	require.NoError(t, err)

	exclusions := make(map[string]string)
	for _, e := range snapshot.Excluded {
		exclusions[e.Address] = e.Reason
	}
	assert.Equal(t, eligibility.ReasonNoInfo, exclusions[addrNoSummary])
}

func TestGenerateForEpoch_Deterministic(t *testing.T) {
	g, _ := newGeneratorFixture(t)

	first, err := g.GenerateForEpoch(context.Background(), 160)
	require.NoError(t, err)
	second, err := g.GenerateForEpoch(context.Background(), 160)
	require.NoError(t, err)

	assert.Equal(t, first.Addresses, second.Addresses)
	assert.Equal(t, first.MerkleRoot, second.MerkleRoot)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestLatestFinalizedEpoch(t *testing.T) {
	g, _ := newGeneratorFixture(t)

	epoch, err := g.LatestFinalizedEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(161), epoch)
}

func TestGenerateHistoric(t *testing.T) {
	g, stub := newGeneratorFixture(t)
	// Only epoch 160 has data; restrict the walk to it
	stub.LastEpochInfo = &idena.EpochInfo{Epoch: 161}

	snapshots, counts, err := g.GenerateHistoric(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(160), counts[0].Epoch)
	assert.Equal(t, 2, counts[0].EligibleCount)
}

func TestProofFor(t *testing.T) {
	addresses := []string{addrEligible, addrRich, addrPoor}

	proof, err := ProofFor(addresses, addrRich)
	require.NoError(t, err)
	assert.Equal(t, 1, proof.LeafIndex)

	// Lookup is case-insensitive
	proofLower, err := ProofFor(addresses, "0xaa00000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.Equal(t, proof.LeafIndex, proofLower.LeafIndex)

	_, err = ProofFor(addresses, "0xdead")
	require.ErrorIs(t, err, ErrNotWhitelisted)
}

func TestCheckMembership(t *testing.T) {
	addresses := []string{addrEligible, addrRich, addrPoor}
	tree, err := merkle.BuildTree(addresses)
	require.NoError(t, err)

	ok, proof, err := CheckMembership(addresses, addrPoor, tree.RootHex())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, proof)

	// A root from a different list must not verify
	other, err := merkle.BuildTree([]string{"0x01", "0x02"})
	require.NoError(t, err)
	ok, _, err = CheckMembership(addresses, addrPoor, other.RootHex())
	require.NoError(t, err)
	assert.False(t, ok)
}
