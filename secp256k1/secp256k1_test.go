package secp256k1

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/group/grouptest"
)

func TestGroupConformance(t *testing.T) {
	grouptest.Run(t, &Secp256k1{})
}

func TestGeneratorEncoding(t *testing.T) {
	g := &Secp256k1{}
	want := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	assert.Equal(t, want, hex.EncodeToString(g.Generator().Bytes()))
}

func TestIdentityEncodesAsZeros(t *testing.T) {
	g := &Secp256k1{}
	assert.Equal(t, make([]byte, 33), g.NewPoint().Bytes())

	P := g.NewPoint().Sub(g.Generator(), g.Generator())
	assert.True(t, P.IsIdentity())
	assert.Equal(t, make([]byte, 33), P.Bytes())
}

func TestSetBytesRejectsInvalidPoints(t *testing.T) {
	g := &Secp256k1{}

	tests := []struct {
		name string
		data []byte
	}{
		{"short", make([]byte, 32)},
		{"uncompressed prefix", append([]byte{0x04}, make([]byte, 32)...)},
		{"x overflows field", mustHex(t, "02fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.NewPoint().SetBytes(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestScalarOrderReducesToZero(t *testing.T) {
	g := &Secp256k1{}
	s, err := g.NewScalar().SetBytes(g.Order())
	require.NoError(t, err)
	assert.True(t, s.IsZero())
}

func TestNegateIdentity(t *testing.T) {
	g := &Secp256k1{}
	assert.True(t, g.NewPoint().Negate(g.NewPoint()).IsIdentity())
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
