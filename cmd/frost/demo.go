package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/f3rmion/frostkit/ceremony"
	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/session"
	"github.com/f3rmion/frostkit/transport/memory"
	"github.com/f3rmion/frostkit/wire"
)

func newDemoCmd(a *app) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run key generation and one signing session end to end",
		Long: `Run a complete FROST round trip in one process.

Every party derives its identifier from a 16-byte seed whose first bytes hold
the party index, runs the three DKG rounds, and the configured signers then
sign the configured message. The aggregated signature is verified before it
is printed.

Examples:
  # 2-of-3 over secp256k1 signing "Hello, FROST!" with parties 1 and 2
  frost demo

  # 3-of-5 over Baby Jubjub with the Blake2b hash, parties 1, 3 and 5 signing
  frost demo --curve bjj --hash blake2b --threshold 3 --participants 5 --signers 1,3,5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd, showMetrics)
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print ceremony counters when done")
	return cmd
}

func (a *app) runDemo(cmd *cobra.Command, showMetrics bool) error {
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
	for i, id := range ids {
		fmt.Fprintf(out, "Party %d identifier: %s\n", i+1, hex.EncodeToString(id.Bytes()))
	}

	reg := prometheus.NewRegistry()
	metrics, err := ceremony.NewMetrics(reg)
	if err != nil {
		return err
	}
	c, err := ceremony.New(f, ceremony.Config{
		Codec:   cfg.Codec,
		Logger:  a.logger,
		Metrics: metrics,
	})
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
	fmt.Fprintf(out, "DKG complete: %d-of-%d over %s\n", cfg.Threshold, cfg.Participants, f.Group().Name())
	printPublicKeyPackage(out, pub)

	signers := make([]ceremony.Party, 0, len(cfg.Signers))
	for _, s := range cfg.Signers {
		signers = append(signers, parties[s-1])
	}
	message := []byte(cfg.Message)
	sig, err := c.Sign(ctx, tr, signers, message)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	if err := session.Verify(f, message, sig, pub.GroupKey); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signers: %v\n", cfg.Signers)
	fmt.Fprintf(out, "Message: %q\n", cfg.Message)
	fmt.Fprintf(out, "Signature: %s\n", hex.EncodeToString(sig.Bytes()))
	fmt.Fprintln(out, "Signature valid: true")

	if cfg.Output != "" {
		if err := writeJSON(cfg.Output, wire.FromPublicKeyPackage(f.Group(), pub), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "Public key package written to %s\n", cfg.Output)
	}
	if showMetrics {
		return printMetrics(out, reg)
	}
	return nil
}

// deriveIdentifiers derives party identifiers from 16-byte seeds holding
// the little-endian party index.
func deriveIdentifiers(f *frost.FROST, n int) ([]frost.Identifier, error) {
	seeds := make([][]byte, n)
	for i := range seeds {
		seed := make([]byte, 16)
		seed[0] = byte(i + 1)
		seed[1] = byte((i + 1) >> 8)
		seeds[i] = seed
	}
	return session.DeriveIdentifiers(f, seeds)
}

func printPublicKeyPackage(out io.Writer, pub *frost.PublicKeyPackage) {
	fmt.Fprintf(out, "Group key: %s\n", hex.EncodeToString(pub.GroupKey.Bytes()))
	for _, vs := range pub.VerifyingShares {
		fmt.Fprintf(out, "  verifying share %s: %s\n",
			hex.EncodeToString(vs.Identifier.Bytes()), hex.EncodeToString(vs.Share.Bytes()))
	}
}

func printMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%s ", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(out, "%s{%s} %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(out, "%s{%s} count=%d\n", mf.GetName(), labels, m.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}
