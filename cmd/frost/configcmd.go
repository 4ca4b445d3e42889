package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Generate and inspect frost configuration files.

Configuration files use YAML. Flags override file values, and FROST_
environment variables sit in between, e.g. FROST_THRESHOLD=3 or
FROST_LOGGING_LEVEL=debug.

Examples:
  # Write the effective settings to ./frost.yaml
  frost config init

  # Start from a Baby Jubjub setup
  frost --curve bjj --hash blake2b config init --path bjj.yaml

  # Show the effective settings
  frost config show`,
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "frost.yaml", "config file to write")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(data))
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# loaded from %s\n", used)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
