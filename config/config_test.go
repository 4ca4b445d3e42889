package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/frost"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	v := NewViper()
	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromYAML(t *testing.T) {
	v := NewViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
threshold: 3
participants: 5
curve: bjj
hash: blake2b
codec: cbor
signers: [1, 3, 5]
timeout: 1m
logging:
  level: debug
  development: true
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threshold)
	assert.Equal(t, 5, cfg.Participants)
	assert.Equal(t, CurveBJJ, cfg.Curve)
	assert.Equal(t, HashBlake2b, cfg.Hash)
	assert.Equal(t, "cbor", cfg.Codec)
	assert.Equal(t, []int{1, 3, 5}, cfg.Signers)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "Hello, FROST!", cfg.Message, "unset keys keep their default")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FROST_THRESHOLD", "3")
	t.Setenv("FROST_SIGNERS", "1,2,3")
	t.Setenv("FROST_LOGGING_LEVEL", "warn")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threshold)
	assert.Equal(t, []int{1, 2, 3}, cfg.Signers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestYAMLRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Curve = CurveBJJ
	cfg.Signers = []int{2, 3}
	cfg.Timeout = 90 * time.Second

	out, err := cfg.YAML()
	require.NoError(t, err)

	v := NewViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(out)))
	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"threshold above participants", func(c *Config) { c.Threshold = 4 }},
		{"too many participants", func(c *Config) { c.Participants = 70000 }},
		{"unknown curve", func(c *Config) { c.Curve = "p256" }},
		{"unknown hash", func(c *Config) { c.Hash = "md5" }},
		{"unknown codec", func(c *Config) { c.Codec = "xml" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"too few signers", func(c *Config) { c.Signers = []int{1} }},
		{"signer out of range", func(c *Config) { c.Signers = []int{1, 4} }},
		{"signer zero", func(c *Config) { c.Signers = []int{0, 1} }},
		{"duplicate signer", func(c *Config) { c.Signers = []int{2, 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSuite(t *testing.T) {
	tests := []struct {
		curve, hash string
		wantGroup   string
	}{
		{CurveSecp256k1, HashSHA256, "secp256k1"},
		{CurveSecp256k1, HashBlake2b, "secp256k1"},
		{CurveBJJ, HashSHA256, "bjj"},
		{CurveBJJ, HashBlake2b, "bjj"},
	}
	for _, tt := range tests {
		t.Run(tt.curve+"/"+tt.hash, func(t *testing.T) {
			cfg := Default()
			cfg.Curve, cfg.Hash = tt.curve, tt.hash

			g, h, err := cfg.Suite()
			require.NoError(t, err)
			assert.Equal(t, tt.wantGroup, g.Name())
			switch tt.hash {
			case HashSHA256:
				assert.IsType(t, &frost.SHA256Hasher{}, h)
			case HashBlake2b:
				assert.IsType(t, &frost.Blake2bHasher{}, h)
			}

			f, err := cfg.FROST()
			require.NoError(t, err)
			assert.Equal(t, 2, f.Threshold())
			assert.Equal(t, 3, f.Total())
		})
	}
}
