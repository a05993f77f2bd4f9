// Package whitelist orchestrates a generation run: candidate collection,
// eligibility filtering, and the merkle commitment over the final list.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/pkg/collector"
	"github.com/ubiubi18/whitelist-blueprint/pkg/eligibility"
	"github.com/ubiubi18/whitelist-blueprint/pkg/idena"
	"github.com/ubiubi18/whitelist-blueprint/pkg/merkle"
)

// Generator produces whitelist snapshots for finalized epochs
type Generator struct {
	client    idena.IClient
	collector *collector.Collector
	logger    *zap.Logger
}

// NewGenerator creates a generator
func NewGenerator(client idena.IClient, c *collector.Collector, logger *zap.Logger) *Generator {
	return &Generator{
		client:    client,
		collector: c,
		logger:    logger,
	}
}

// LatestFinalizedEpoch returns the most recent epoch whose validation has
// completed: the last epoch minus one.
func (g *Generator) LatestFinalizedEpoch(ctx context.Context) (int64, error) {
	last, err := g.client.LastEpoch(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch last epoch: %w", err)
	}
	return last.Epoch - 1, nil
}

// GenerateForEpoch runs the full pipeline for one epoch and returns the
// snapshot. The discrimination stake threshold is taken from the epoch
// following the target, which is the epoch where it takes effect.
func (g *Generator) GenerateForEpoch(ctx context.Context, epoch int64) (*Snapshot, error) {
	addresses, err := g.collector.CollectAddresses(ctx, epoch)
	if err != nil {
		return nil, err
	}

	next, err := g.client.Epoch(ctx, epoch+1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch epoch %d: %w", epoch+1, err)
	}
	threshold := float64(next.DiscriminationStakeThreshold)
	g.logger.Sugar().Infow("Using discrimination stake threshold", "epoch", epoch, "threshold", threshold)

	badAuthors, err := g.client.BadAuthors(ctx, epoch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bad authors of epoch %d: %w", epoch, err)
	}

	snapshot := &Snapshot{
		RunID:       uuid.NewString(),
		Epoch:       epoch,
		Threshold:   threshold,
		GeneratedAt: time.Now().UTC(),
	}

	total := len(addresses)
	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, exclusion, evalErr := g.evaluateAddress(ctx, epoch, addr, badAuthors, threshold)
		switch {
		case evalErr != nil:
			g.logger.Sugar().Warnw("Eligibility check failed",
				"progress", fmt.Sprintf("%d/%d", i+1, total), "address", addr, "error", evalErr)
			snapshot.Errors = append(snapshot.Errors, Exclusion{Address: addr, Reason: evalErr.Error()})
		case exclusion != nil:
			g.logger.Sugar().Infow("Address excluded",
				"progress", fmt.Sprintf("%d/%d", i+1, total), "address", addr, "reason", exclusion.Reason)
			snapshot.Excluded = append(snapshot.Excluded, *exclusion)
		default:
			g.logger.Sugar().Infow("Address whitelisted",
				"progress", fmt.Sprintf("%d/%d", i+1, total), "address", addr)
			snapshot.Addresses = append(snapshot.Addresses, addr)
			snapshot.Entries = append(snapshot.Entries, *entry)
		}
	}

	if len(snapshot.Addresses) > 0 {
		tree, err := merkle.BuildTree(snapshot.Addresses)
		if err != nil {
			return nil, err
		}
		snapshot.MerkleRoot = tree.RootHex()
	}

	g.logger.Sugar().Infow("Whitelist generated",
		"run_id", snapshot.RunID,
		"epoch", epoch,
		"whitelisted", len(snapshot.Addresses),
		"excluded", len(snapshot.Excluded),
		"errors", len(snapshot.Errors),
		"merkle_root", snapshot.MerkleRoot)

	return snapshot, nil
}

// evaluateAddress checks one candidate. It returns exactly one of: an
// entry (eligible), an exclusion (ineligible), or an error (undetermined).
func (g *Generator) evaluateAddress(
	ctx context.Context,
	epoch int64,
	addr string,
	badAuthors map[string]struct{},
	threshold float64,
) (*Entry, *Exclusion, error) {
	addrLower := strings.ToLower(addr)
	_, isBad := badAuthors[addrLower]

	summary, err := g.client.ValidationSummary(ctx, epoch, addrLower)
	if errors.Is(err, idena.ErrNotFound) {
		// No summary usually means the identity never paid or failed as a
		// candidate; report its current state when available.
		state := ""
		if identity, idErr := g.client.Identity(ctx, addrLower); idErr == nil {
			state = identity.State
		} else if !errors.Is(idErr, idena.ErrNotFound) {
			return nil, nil, idErr
		} else {
			return nil, &Exclusion{Address: addr, Reason: eligibility.ReasonNoInfo}, nil
		}
		return nil, &Exclusion{Address: addr, Reason: eligibility.NotFoundReason(state)}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rewards, err := g.client.IdentityRewards(ctx, epoch, addrLower)
	if err != nil {
		// Rewards are additive only; a failed fetch must not fabricate a
		// lower stake silently, so surface the error.
		return nil, nil, err
	}

	rewardSum := 0.0
	byType := make(map[string]float64)
	for _, reward := range rewards {
		rewardSum += float64(reward.Stake)
		byType[reward.Type] += float64(reward.Stake)
	}

	result := eligibility.Evaluate(eligibility.Input{
		Address:     addr,
		BadAuthor:   isBad,
		Summary:     summary,
		RewardStake: rewardSum,
		Threshold:   threshold,
	})
	if !result.Eligible {
		return nil, &Exclusion{Address: addr, Reason: result.Reason}, nil
	}

	return &Entry{
		Address:            addr,
		State:              summary.State,
		BaseStake:          float64(summary.Stake),
		SessionStakeReward: rewardSum,
		ByType:             byType,
		EpochStartStake:    result.EpochStartStake,
	}, nil, nil
}

// GenerateHistoric runs the pipeline for the lookBack epochs preceding the
// latest finalized one, newest first, and returns the snapshots plus the
// per-epoch eligible counts for the summary artifact.
func (g *Generator) GenerateHistoric(ctx context.Context, lookBack int) ([]*Snapshot, []EpochCount, error) {
	latest, err := g.LatestFinalizedEpoch(ctx)
	if err != nil {
		return nil, nil, err
	}

	var snapshots []*Snapshot
	var counts []EpochCount
	for offset := 0; offset < lookBack; offset++ {
		epoch := latest - int64(offset)
		if epoch < 0 {
			break
		}

		snapshot, err := g.GenerateForEpoch(ctx, epoch)
		if err != nil {
			return nil, nil, fmt.Errorf("historic run failed at epoch %d: %w", epoch, err)
		}
		snapshots = append(snapshots, snapshot)
		counts = append(counts, EpochCount{Epoch: epoch, EligibleCount: len(snapshot.Addresses)})
	}

	return snapshots, counts, nil
}
