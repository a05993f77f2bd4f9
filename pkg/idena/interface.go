package idena

import (
	"context"
	"net/http"
)

// IClient defines the interface for querying the Idena indexer API.
// It abstracts the HTTP client so the collector and generator can be
// tested against stub implementations.
type IClient interface {
	// SetHTTPClient allows setting a custom HTTP client.
	// Useful for tests or custom transport configuration.
	SetHTTPClient(client *http.Client)

	// LastEpoch returns the most recent epoch record.
	LastEpoch(ctx context.Context) (*EpochInfo, error)

	// Epoch returns the record for a specific epoch.
	Epoch(ctx context.Context, epoch int64) (*EpochInfo, error)

	// BlockFlags returns the flags of the block at the given height.
	// Missing blocks and blocks without flags yield an empty slice, not an
	// error, so callers can scan height ranges blindly.
	BlockFlags(ctx context.Context, height int64) ([]string, error)

	// BlockTxs returns all transactions of a block, following the API's
	// continuationToken pagination to exhaustion.
	BlockTxs(ctx context.Context, height int64) ([]Transaction, error)

	// BadAuthors returns the lowercased addresses flagged for bad flips in
	// an epoch, paginated to exhaustion.
	BadAuthors(ctx context.Context, epoch int64) (map[string]struct{}, error)

	// ValidationSummary returns the validation outcome of one identity for
	// one epoch. A 404 response is reported as ErrNotFound so callers can
	// fall back to an Identity state lookup.
	ValidationSummary(ctx context.Context, epoch int64, address string) (*ValidationSummary, error)

	// Identity returns the current chain state of an identity.
	Identity(ctx context.Context, address string) (*Identity, error)

	// IdentityRewards returns the session rewards of one identity for one
	// epoch. A null result decodes to an empty slice.
	IdentityRewards(ctx context.Context, epoch int64, address string) ([]Reward, error)
}

// Compile-time check that Client implements IClient
var _ IClient = (*Client)(nil)
