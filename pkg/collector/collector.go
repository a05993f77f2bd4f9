// Package collector discovers the candidate address set for an epoch by
// scanning the short-session blocks for validation transactions.
package collector

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/pkg/idena"
)

// ShortSessionFlag marks the block at which the short validation session
// started
const ShortSessionFlag = "ShortSessionStarted"

// shortSessionOffset is how many blocks after validationFirstBlockHeight
// the flag search begins
const shortSessionOffset = 15

// Config controls the collection scan
type Config struct {
	// RequiredTxBlocks is how many non-empty blocks must be collected
	RequiredTxBlocks int

	// BlockScanWindow bounds the search for the short-session flag
	BlockScanWindow int
}

// Collector walks an epoch's short-session blocks and extracts the unique
// sender addresses of their transactions.
type Collector struct {
	client idena.IClient
	cfg    Config
	logger *zap.Logger
}

// New creates a collector
func New(client idena.IClient, cfg Config, logger *zap.Logger) *Collector {
	if cfg.RequiredTxBlocks <= 0 {
		cfg.RequiredTxBlocks = 7
	}
	if cfg.BlockScanWindow <= 0 {
		cfg.BlockScanWindow = 20
	}
	return &Collector{client: client, cfg: cfg, logger: logger}
}

// FindShortSessionBlock scans forward from startHeight for the block
// carrying the ShortSessionStarted flag.
func (c *Collector) FindShortSessionBlock(ctx context.Context, startHeight int64) (int64, error) {
	for h := startHeight; h < startHeight+int64(c.cfg.BlockScanWindow); h++ {
		flags, err := c.client.BlockFlags(ctx, h)
		if err != nil {
			return 0, err
		}
		if len(flags) == 0 {
			c.logger.Sugar().Debugw("No flags found in block", "height", h)
		}
		for _, flag := range flags {
			if flag == ShortSessionFlag {
				c.logger.Sugar().Infow("Short session block found", "height", h)
				return h, nil
			}
		}
	}
	return 0, fmt.Errorf("no %s block found in %d blocks from height %d",
		ShortSessionFlag, c.cfg.BlockScanWindow, startHeight)
}

// CollectAddresses returns the sorted unique sender addresses of the
// epoch's short-session transactions. Empty blocks are skipped; the scan
// continues until RequiredTxBlocks non-empty blocks have been consumed.
func (c *Collector) CollectAddresses(ctx context.Context, epoch int64) ([]string, error) {
	info, err := c.client.Epoch(ctx, epoch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch epoch %d: %w", epoch, err)
	}

	start, err := c.FindShortSessionBlock(ctx, info.ValidationFirstBlockHeight+shortSessionOffset)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	blocksFound := 0

	c.logger.Sugar().Infow("Collecting short session blocks",
		"epoch", epoch, "required_blocks", c.cfg.RequiredTxBlocks)

	for height := start; blocksFound < c.cfg.RequiredTxBlocks; height++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		txs, err := c.client.BlockTxs(ctx, height)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch txs of block %d: %w", height, err)
		}
		if len(txs) == 0 {
			c.logger.Sugar().Debugw("Empty block skipped", "height", height)
			continue
		}

		blocksFound++
		for _, tx := range txs {
			if tx.From != "" {
				unique[tx.From] = struct{}{}
			}
		}
		c.logger.Sugar().Infow("Block collected", "height", height, "txs", len(txs))
	}

	addresses := make([]string, 0, len(unique))
	for addr := range unique {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	c.logger.Sugar().Infow("Address collection done", "epoch", epoch, "unique_addresses", len(addresses))
	return addresses, nil
}
