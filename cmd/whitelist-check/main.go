package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/ubiubi18/whitelist-blueprint/internal/artifacts"
	"github.com/ubiubi18/whitelist-blueprint/pkg/config"
	"github.com/ubiubi18/whitelist-blueprint/pkg/whitelist"
)

func main() {
	app := &cli.App{
		Name:      "whitelist-check",
		Usage:     "Offline merkle membership checker for published whitelists",
		ArgsUsage: "ADDRESS [ADDRESS...]",
		Description: `Verifies address membership against published whitelist artifacts
without any network access.

Loads the whitelist and merkle root files from the data directory
(auto-detecting the latest epoch when none is given), rebuilds the tree,
generates a proof for each queried address, and verifies it against the
committed root. The proof is printed as JSON so it can be handed to an
independent verifier.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory containing the published artifacts",
				Value:   ".",
				EnvVars: []string{config.EnvDataDir},
			},
			&cli.Int64Flag{
				Name:    "epoch",
				Aliases: []string{"e"},
				Usage:   "Epoch to check (0 = latest merkle_root_epoch_*.txt found)",
				EnvVars: []string{config.EnvEpoch},
			},
		},
		Action: runChecker,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runChecker(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no addresses given; usage: whitelist-check ADDRESS [ADDRESS...]")
	}

	reader := artifacts.NewReader(afero.NewOsFs(), c.String("data-dir"))

	epoch := c.Int64("epoch")
	if epoch <= 0 {
		latest, err := reader.LatestRootEpoch()
		if err != nil {
			return err
		}
		epoch = latest
	}

	root, err := reader.ReadRoot(epoch)
	if err != nil {
		return err
	}
	addresses, err := reader.ReadWhitelist(epoch)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("no addresses found in whitelist for epoch %d", epoch)
	}

	fmt.Printf("Loaded merkle root: %s (epoch %d)\n", root, epoch)
	fmt.Printf("Whitelist size: %d\n\n", len(addresses))

	for _, address := range c.Args().Slice() {
		valid, proof, err := whitelist.CheckMembership(addresses, address, root)
		if errors.Is(err, whitelist.ErrNotWhitelisted) {
			fmt.Printf("[NOT FOUND IN WHITELIST] %s\n\n", address)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", address, err)
		}

		included := "NO"
		if valid {
			included = "YES"
		}

		proofJSON, err := json.MarshalIndent(proof, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode proof for %s: %w", address, err)
		}

		fmt.Printf("Address: %s\n", address)
		fmt.Printf("  Included in merkle root: %s\n", included)
		fmt.Printf("  Merkle proof: %s\n\n", proofJSON)
	}

	return nil
}
