package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/frostkit/ceremony"
	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/group"
	"github.com/f3rmion/frostkit/session"
	"github.com/f3rmion/frostkit/transport"
	"github.com/f3rmion/frostkit/transport/memory"
	"github.com/f3rmion/frostkit/wire"
)

func newSignCmd(a *app) *cobra.Command {
	var keysDir, pubPath string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with saved key packages",
		Long: `Load the key packages of the configured signers from --keys-dir, restore
them against the public key package, and run one signing session.

The signature is verified before it is written to --output or printed.

Example:
  frost sign --keys-dir ./keys --pub pub.json --signers 1,3 --message "pay 5" -o sig.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSign(cmd, keysDir, pubPath)
		},
	}
	cmd.Flags().StringVar(&keysDir, "keys-dir", "", "directory holding key-<index>.json files")
	cmd.Flags().StringVar(&pubPath, "pub", "", "public key package file")
	for _, name := range []string{"keys-dir", "pub"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func loadPublicKeyPackage(g group.Group, path string) (*frost.PublicKeyPackage, error) {
	var w wire.PublicKeyPackage
	if err := readJSON(path, &w); err != nil {
		return nil, err
	}
	pub, err := w.Decode(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pub, nil
}

func loadKeyPackage(g group.Group, path string) (*frost.KeyPackage, error) {
	var w wire.KeyPackage
	if err := readJSON(path, &w); err != nil {
		return nil, err
	}
	kp, err := w.Decode(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kp, nil
}

func (a *app) runSign(cmd *cobra.Command, keysDir, pubPath string) error {
	out := cmd.OutOrStdout()
	cfg := a.cfg

	f, err := cfg.FROST()
	if err != nil {
		return err
	}
	g := f.Group()
	pub, err := loadPublicKeyPackage(g, pubPath)
	if err != nil {
		return err
	}
	if pub.MinSigners != cfg.Threshold {
		return fmt.Errorf("%w: public key package needs %d signers, configured threshold is %d",
			frost.ErrInvalidConfiguration, pub.MinSigners, cfg.Threshold)
	}

	signers := make([]ceremony.Party, 0, len(cfg.Signers))
	for _, s := range cfg.Signers {
		kp, err := loadKeyPackage(g, keyPath(keysDir, s))
		if err != nil {
			return err
		}
		p, err := session.NewParticipant(f, kp.Identifier)
		if err != nil {
			return err
		}
		if err := p.Restore(kp, pub); err != nil {
			return err
		}
		signers = append(signers, ceremony.Party{ID: transport.PartyID(s), Participant: p})
	}

	c, err := ceremony.New(f, ceremony.Config{Codec: cfg.Codec, Logger: a.logger})
	if err != nil {
		return err
	}
	tr, err := memory.New(c.SessionID(), ceremony.PartyIDs(signers), cfg.Codec)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, cancel := a.context(cmd)
	defer cancel()

	sig, err := c.Sign(ctx, tr, signers, []byte(cfg.Message))
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	if cfg.Output == "" {
		fmt.Fprintf(out, "Signature: %s\n", hex.EncodeToString(sig.Bytes()))
		return nil
	}
	if err := writeJSON(cfg.Output, wire.FromSignature(sig), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signature written to %s\n", cfg.Output)
	return nil
}
