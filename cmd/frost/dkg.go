package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/frostkit/ceremony"
	"github.com/f3rmion/frostkit/transport/memory"
	"github.com/f3rmion/frostkit/wire"
)

func newDKGCmd(a *app) *cobra.Command {
	var keysDir string

	cmd := &cobra.Command{
		Use:   "dkg",
		Short: "Run distributed key generation and save the results",
		Long: `Run the three DKG rounds for every configured participant.

Each party's key package is written to <keys-dir>/key-<index>.json with
owner-only permissions; it holds the signing share and must stay private.
The public key package is written to --output, or printed when unset.

Example:
  frost dkg --threshold 2 --participants 3 --keys-dir ./keys --output pub.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDKG(cmd, keysDir)
		},
	}
	cmd.Flags().StringVar(&keysDir, "keys-dir", "", "directory for the secret key packages")
	if err := cmd.MarkFlagRequired("keys-dir"); err != nil {
		panic(fmt.Sprintf("failed to mark keys-dir flag as required: %v", err))
	}
	return cmd
}

func (a *app) runDKG(cmd *cobra.Command, keysDir string) error {
	out := cmd.OutOrStdout()
	cfg := a.cfg

	f, err := cfg.FROST()
	if err != nil {
		return err
	}
	ids, err := deriveIdentifiers(f, cfg.Participants)
	if err != nil {
		return err
	}
	c, err := ceremony.New(f, ceremony.Config{Codec: cfg.Codec, Logger: a.logger})
	if err != nil {
		return err
	}
	parties, err := ceremony.NewParties(f, ids)
	if err != nil {
		return err
	}
	tr, err := memory.New(c.SessionID(), ceremony.PartyIDs(parties), cfg.Codec)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, cancel := a.context(cmd)
	defer cancel()

	pub, err := c.RunDKG(ctx, tr, parties)
	if err != nil {
		return fmt.Errorf("dkg: %w", err)
	}

	g := f.Group()
	for i, p := range parties {
		path := keyPath(keysDir, i+1)
		if err := writeJSON(path, wire.FromKeyPackage(g, p.Participant.KeyPackage()), 0o600); err != nil {
			return err
		}
		fmt.Fprintf(out, "Party %d key package written to %s\n", i+1, path)
	}

	if cfg.Output == "" {
		printPublicKeyPackage(out, pub)
		return nil
	}
	if err := writeJSON(cfg.Output, wire.FromPublicKeyPackage(g, pub), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Public key package written to %s\n", cfg.Output)
	return nil
}
