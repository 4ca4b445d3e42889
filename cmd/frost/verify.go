package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f3rmion/frostkit/session"
	"github.com/f3rmion/frostkit/wire"
)

func newVerifyCmd(a *app) *cobra.Command {
	var pubPath, sigPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature against a public key package",
		Long: `Check a saved signature for --message against the group key held in a
public key package.

Example:
  frost verify --pub pub.json --signature sig.json --message "pay 5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.cfg.FROST()
			if err != nil {
				return err
			}
			g := f.Group()
			pub, err := loadPublicKeyPackage(g, pubPath)
			if err != nil {
				return err
			}
			var w wire.Signature
			if err := readJSON(sigPath, &w); err != nil {
				return err
			}
			sig, err := w.Decode(g)
			if err != nil {
				return fmt.Errorf("%s: %w", sigPath, err)
			}
			if err := session.Verify(f, []byte(a.cfg.Message), sig, pub.GroupKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signature valid: true")
			return nil
		},
	}
	cmd.Flags().StringVar(&pubPath, "pub", "", "public key package file")
	cmd.Flags().StringVar(&sigPath, "signature", "", "signature file")
	for _, name := range []string{"pub", "signature"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}
