package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/f3rmion/frostkit/config"
	"github.com/f3rmion/frostkit/logging"
)

// Version information, set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "frost",
		Short: "FROST distributed key generation and threshold signing",
		Long: `frost runs FROST distributed key generation and threshold Schnorr signing
with every party in one process, exchanging messages over an in-memory transport.

Use 'frost demo' for a complete key generation and signing round trip.
Use 'frost dkg', 'frost sign' and 'frost verify' to work with saved key material.

Settings come from flags, FROST_ environment variables, and an optional YAML
config file (see 'frost config init').`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./frost.yaml if present)")
	flags.Int("threshold", 0, "minimum number of signers")
	flags.Int("participants", 0, "number of DKG participants")
	flags.String("curve", "", "curve (secp256k1, bjj)")
	flags.String("hash", "", "hash function (sha256, blake2b)")
	flags.String("codec", "", "message codec (json, msgpack, cbor, yaml)")
	flags.Duration("timeout", 0, "ceremony timeout")
	flags.String("message", "", "message to sign or verify")
	flags.IntSlice("signers", nil, "1-based indices of the signing parties")
	flags.StringP("output", "o", "", "file to write the command's result to")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this file, rotated by size")
	flags.Bool("development", false, "development logging")

	bindings := map[string]string{
		"threshold":           "threshold",
		"participants":        "participants",
		"curve":               "curve",
		"hash":                "hash",
		"codec":               "codec",
		"timeout":             "timeout",
		"message":             "message",
		"signers":             "signers",
		"output":              "output",
		"logging.level":       "log-level",
		"logging.file":        "log-file",
		"logging.development": "development",
	}
	for key, name := range bindings {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}

	root.AddCommand(
		newDemoCmd(a),
		newDKGCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup reads the config file, loads settings and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("frost")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || a.cfgFile != "" {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}
	return nil
}

// context returns a context bounded by the configured timeout.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, a.cfg.Timeout)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frost version %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
