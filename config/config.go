// Package config holds the settings for the frost command and turns them
// into a FROST instance.
//
// Values come, lowest precedence first, from [Default], an optional YAML
// file, FROST_ prefixed environment variables and command-line flags,
// all merged by viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/f3rmion/frostkit/bjj"
	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/group"
	"github.com/f3rmion/frostkit/logging"
	"github.com/f3rmion/frostkit/secp256k1"
	"github.com/f3rmion/frostkit/transport"
)

// ErrInvalidConfig indicates a setting out of range or unknown.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvPrefix is the environment variable prefix, e.g. FROST_THRESHOLD.
const EnvPrefix = "FROST"

// Curves.
const (
	CurveSecp256k1 = "secp256k1"
	CurveBJJ       = "bjj"
)

// Hash functions.
const (
	HashSHA256  = "sha256"
	HashBlake2b = "blake2b"
)

// Config is the full set of settings.
type Config struct {
	Threshold    int            `mapstructure:"threshold" yaml:"threshold"`
	Participants int            `mapstructure:"participants" yaml:"participants"`
	Curve        string         `mapstructure:"curve" yaml:"curve"`
	Hash         string         `mapstructure:"hash" yaml:"hash"`
	Codec        string         `mapstructure:"codec" yaml:"codec"`
	Message      string         `mapstructure:"message" yaml:"message"`
	Signers      []int          `mapstructure:"signers" yaml:"signers,flow"`
	Timeout      time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	Output       string         `mapstructure:"output" yaml:"output"`
	Logging      logging.Config `mapstructure:"logging" yaml:"logging"`
}

// Default returns the 2-of-3 secp256k1 setup signing "Hello, FROST!"
// with parties 1 and 2.
func Default() *Config {
	return &Config{
		Threshold:    2,
		Participants: 3,
		Curve:        CurveSecp256k1,
		Hash:         HashSHA256,
		Codec:        transport.CodecJSON,
		Message:      "Hello, FROST!",
		Signers:      []int{1, 2},
		Timeout:      30 * time.Second,
		Logging:      logging.Config{Level: "info"},
	}
}

// SetDefaults registers Default's values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("participants", d.Participants)
	v.SetDefault("curve", d.Curve)
	v.SetDefault("hash", d.Hash)
	v.SetDefault("codec", d.Codec)
	v.SetDefault("message", d.Message)
	v.SetDefault("signers", d.Signers)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("output", d.Output)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.file", d.Logging.File)
}

// NewViper returns a viper instance with defaults and environment
// binding in place. The caller adds a config file and flags.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.Threshold < 1 || c.Participants < c.Threshold {
		return fmt.Errorf("%w: threshold %d with %d participants", ErrInvalidConfig, c.Threshold, c.Participants)
	}
	if c.Participants > 65535 {
		return fmt.Errorf("%w: %d participants", ErrInvalidConfig, c.Participants)
	}
	switch c.Curve {
	case CurveSecp256k1, CurveBJJ:
	default:
		return fmt.Errorf("%w: unknown curve %q", ErrInvalidConfig, c.Curve)
	}
	switch c.Hash {
	case HashSHA256, HashBlake2b:
	default:
		return fmt.Errorf("%w: unknown hash %q", ErrInvalidConfig, c.Hash)
	}
	if _, err := transport.NewSerializer(c.Codec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout %s", ErrInvalidConfig, c.Timeout)
	}
	if len(c.Signers) < c.Threshold {
		return fmt.Errorf("%w: %d signers for threshold %d", ErrInvalidConfig, len(c.Signers), c.Threshold)
	}
	seen := make(map[int]bool, len(c.Signers))
	for _, s := range c.Signers {
		if s < 1 || s > c.Participants {
			return fmt.Errorf("%w: signer %d outside 1..%d", ErrInvalidConfig, s, c.Participants)
		}
		if seen[s] {
			return fmt.Errorf("%w: signer %d listed twice", ErrInvalidConfig, s)
		}
		seen[s] = true
	}
	return nil
}

// Group returns the configured curve.
func (c *Config) Group() (group.Group, error) {
	switch c.Curve {
	case CurveSecp256k1:
		return &secp256k1.Secp256k1{}, nil
	case CurveBJJ:
		return &bjj.BJJ{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown curve %q", ErrInvalidConfig, c.Curve)
	}
}

// Suite returns the curve and hash function pair.
func (c *Config) Suite() (group.Group, frost.Hasher, error) {
	g, err := c.Group()
	if err != nil {
		return nil, nil, err
	}
	switch c.Hash {
	case HashSHA256:
		return g, frost.NewSHA256Hasher(g), nil
	case HashBlake2b:
		return g, frost.NewBlake2bHasher(), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown hash %q", ErrInvalidConfig, c.Hash)
	}
}

// FROST builds the configured instance.
func (c *Config) FROST() (*frost.FROST, error) {
	g, h, err := c.Suite()
	if err != nil {
		return nil, err
	}
	return frost.NewWithHasher(g, c.Threshold, c.Participants, h)
}

// YAML renders c in the config file format.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return out, nil
}
