package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ubiubi18/whitelist-blueprint/internal/artifacts"
	"github.com/ubiubi18/whitelist-blueprint/pkg/collector"
	"github.com/ubiubi18/whitelist-blueprint/pkg/config"
	"github.com/ubiubi18/whitelist-blueprint/pkg/idena"
	"github.com/ubiubi18/whitelist-blueprint/pkg/logger"
	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence"
	badgerstore "github.com/ubiubi18/whitelist-blueprint/pkg/persistence/badger"
	"github.com/ubiubi18/whitelist-blueprint/pkg/persistence/memory"
	redisstore "github.com/ubiubi18/whitelist-blueprint/pkg/persistence/redis"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

func main() {
	app := &cli.App{
		Name:  "whitelist-gen",
		Usage: "Idena stake-eligibility whitelist generator",
		Description: `Builds the verifiable whitelist for an Idena validation epoch.

The generator collects short-session participants from the indexer API,
applies the stake discrimination eligibility rules, commits the resulting
whitelist to a keccak256 merkle root, and publishes the legacy artifact
files (whitelist, root, JSONL entries, metadata bundle).`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Idena indexer API base URL",
				Value:   config.DefaultAPIBaseURL,
				EnvVars: []string{config.EnvAPIBaseURL},
			},
			&cli.Int64Flag{
				Name:    "epoch",
				Aliases: []string{"e"},
				Usage:   "Target epoch (0 = latest finalized epoch, last - 1)",
				EnvVars: []string{config.EnvEpoch},
			},
			&cli.IntFlag{
				Name:    "look-back",
				Usage:   "Historic mode: generate for the last N finalized epochs",
				EnvVars: []string{config.EnvLookBack},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory for artifact files",
				Value:   ".",
				EnvVars: []string{config.EnvDataDir},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Snapshot store backend: memory, badger, redis (empty = artifacts only)",
				EnvVars: []string{config.EnvStoreType},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "Badger database directory (for --store badger)",
				EnvVars: []string{config.EnvBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address host:port (for --store redis)",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.Float64Flag{
				Name:    "rps",
				Usage:   "API request rate limit (requests per second)",
				Value:   config.DefaultRequestsPerSecond,
				EnvVars: []string{"WLGEN_RPS"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Action: runGenerator,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func parseConfig(c *cli.Context) *config.GeneratorConfig {
	cfg := config.DefaultGeneratorConfig()
	cfg.APIBaseURL = c.String("api-url")
	cfg.RequestsPerSecond = c.Float64("rps")
	cfg.Epoch = c.Int64("epoch")
	cfg.LookBack = c.Int("look-back")
	cfg.DataDir = c.String("data-dir")
	cfg.Store = config.StoreType(c.String("store"))
	cfg.BadgerPath = c.String("badger-path")
	cfg.RedisAddress = c.String("redis-address")
	cfg.Verbose = c.Bool("verbose")
	return cfg
}

func runGenerator(c *cli.Context) error {
	cfg := parseConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := idena.NewClient(&idena.ClientConfig{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, l)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	coll := collector.New(client, collector.Config{
		RequiredTxBlocks: cfg.RequiredTxBlocks,
		BlockScanWindow:  cfg.BlockScanWindow,
	}, l)
	generator := whitelist.NewGenerator(client, coll, l)

	writer, err := artifacts.NewWriter(afero.NewOsFs(), cfg.DataDir, l)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, l)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
		if err := store.HealthCheck(); err != nil {
			return fmt.Errorf("store health check failed: %w", err)
		}
	}

	if cfg.LookBack > 0 {
		return runHistoric(ctx, cfg, generator, writer, store, l)
	}
	return runSingle(ctx, cfg, generator, writer, store, l)
}

func runSingle(
	ctx context.Context,
	cfg *config.GeneratorConfig,
	generator *whitelist.Generator,
	writer *artifacts.Writer,
	store persistence.IWhitelistStore,
	l *zap.Logger,
) error {
	epoch := cfg.Epoch
	if epoch <= 0 {
		latest, err := generator.LatestFinalizedEpoch(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve latest finalized epoch: %w", err)
		}
		epoch = latest
	}

	started := time.Now()
	snapshot, err := generator.GenerateForEpoch(ctx, epoch)
	if err != nil {
		return fmt.Errorf("generation failed for epoch %d: %w", epoch, err)
	}

	if err := publishSnapshot(snapshot, writer, store); err != nil {
		return err
	}

	l.Sugar().Infow("Whitelist generated",
		"epoch", snapshot.Epoch,
		"whitelisted", len(snapshot.Addresses),
		"excluded", len(snapshot.Excluded),
		"errors", len(snapshot.Errors),
		"duration", time.Since(started).Round(time.Millisecond),
	)
	fmt.Printf("MERKLE_ROOT = %s\n", snapshot.MerkleRoot)
	return nil
}

func runHistoric(
	ctx context.Context,
	cfg *config.GeneratorConfig,
	generator *whitelist.Generator,
	writer *artifacts.Writer,
	store persistence.IWhitelistStore,
	l *zap.Logger,
) error {
	snapshots, counts, err := generator.GenerateHistoric(ctx, cfg.LookBack)
	if err != nil {
		return fmt.Errorf("historic generation failed: %w", err)
	}

	for _, snapshot := range snapshots {
		if err := publishSnapshot(snapshot, writer, store); err != nil {
			return err
		}
		fmt.Printf("epoch %d: %d whitelisted, MERKLE_ROOT = %s\n",
			snapshot.Epoch, len(snapshot.Addresses), snapshot.MerkleRoot)
	}

	if err := writer.WriteEpochCounts(counts); err != nil {
		return err
	}

	l.Sugar().Infow("Historic generation complete", "epochs", len(snapshots))
	return nil
}

func publishSnapshot(
	snapshot *whitelist.Snapshot,
	writer *artifacts.Writer,
	store persistence.IWhitelistStore,
) error {
	if err := writer.WriteSnapshot(snapshot); err != nil {
		return fmt.Errorf("failed to write artifacts for epoch %d: %w", snapshot.Epoch, err)
	}

	if store == nil {
		return nil
	}
	if err := store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("failed to persist snapshot for epoch %d: %w", snapshot.Epoch, err)
	}
	meta := &persistence.Meta{
		DiscriminationStakeThreshold: snapshot.Threshold,
		Epoch:                        snapshot.Epoch,
		MerkleRoot:                   snapshot.MerkleRoot,
	}
	if err := store.SaveMeta(meta); err != nil {
		return fmt.Errorf("failed to persist meta for epoch %d: %w", snapshot.Epoch, err)
	}
	return nil
}

func openStore(cfg *config.GeneratorConfig, l *zap.Logger) (persistence.IWhitelistStore, error) {
	switch cfg.Store {
	case config.StoreTypeNone:
		return nil, nil
	case config.StoreTypeMemory:
		return memory.NewMemoryStore(), nil
	case config.StoreTypeBadger:
		return badgerstore.NewBadgerStore(cfg.BadgerPath, l)
	case config.StoreTypeRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{Address: cfg.RedisAddress}, l)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store)
	}
}
