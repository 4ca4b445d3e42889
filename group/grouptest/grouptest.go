// Package grouptest provides a conformance suite for [group.Group]
// implementations. Curve packages call [Run] from their own tests.
package grouptest

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/group"
)

// Run exercises the scalar and point laws the frost package relies on.
func Run(t *testing.T, g group.Group) {
	t.Run("Scalar", func(t *testing.T) { testScalar(t, g) })
	t.Run("Point", func(t *testing.T) { testPoint(t, g) })
	t.Run("Hash", func(t *testing.T) { testHash(t, g) })
}

func random(t *testing.T, g group.Group) group.Scalar {
	t.Helper()
	s, err := g.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return s
}

func one(g group.Group) group.Scalar {
	buf := make([]byte, g.ScalarLength())
	buf[len(buf)-1] = 1
	s, _ := g.NewScalar().SetBytes(buf)
	return s
}

func testScalar(t *testing.T, g group.Group) {
	t.Run("AddSub", func(t *testing.T) {
		a, b := random(t, g), random(t, g)
		sum := g.NewScalar().Add(a, b)
		diff := g.NewScalar().Sub(sum, b)
		assert.True(t, diff.Equal(a), "(a+b)-b != a")
	})

	t.Run("MulInvert", func(t *testing.T) {
		a := random(t, g)
		aInv, err := g.NewScalar().Invert(a)
		require.NoError(t, err)
		product := g.NewScalar().Mul(a, aInv)
		assert.True(t, product.Equal(one(g)), "a*a^-1 != 1")
	})

	t.Run("InvertZeroFails", func(t *testing.T) {
		_, err := g.NewScalar().Invert(g.NewScalar())
		assert.Error(t, err)
	})

	t.Run("Negate", func(t *testing.T) {
		a := random(t, g)
		negA := g.NewScalar().Negate(a)
		assert.True(t, g.NewScalar().Add(a, negA).IsZero())
		assert.False(t, a.Equal(negA))
	})

	t.Run("BytesRoundtrip", func(t *testing.T) {
		a := random(t, g)
		enc := a.Bytes()
		require.Len(t, enc, g.ScalarLength())
		restored, err := g.NewScalar().SetBytes(enc)
		require.NoError(t, err)
		assert.True(t, restored.Equal(a))
	})

	t.Run("SetBytesReducesWideInput", func(t *testing.T) {
		// order + 5 must reduce to 5
		wide := new(big.Int).SetBytes(g.Order())
		wide.Add(wide, big.NewInt(5))
		s, err := g.NewScalar().SetBytes(wide.FillBytes(make([]byte, 64)))
		require.NoError(t, err)

		five := make([]byte, g.ScalarLength())
		five[len(five)-1] = 5
		assert.Equal(t, five, s.Bytes())
	})

	t.Run("NewScalarIsZero", func(t *testing.T) {
		assert.True(t, g.NewScalar().IsZero())
	})

	t.Run("RandomIsNonZero", func(t *testing.T) {
		for i := 0; i < 16; i++ {
			assert.False(t, random(t, g).IsZero())
		}
	})
}

func testPoint(t *testing.T, g group.Group) {
	t.Run("AddSub", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		Q := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		sum := g.NewPoint().Add(P, Q)
		diff := g.NewPoint().Sub(sum, Q)
		assert.True(t, diff.Equal(P), "(P+Q)-Q != P")
	})

	t.Run("Negate", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		negP := g.NewPoint().Negate(P)
		assert.True(t, g.NewPoint().Add(P, negP).IsIdentity())
	})

	t.Run("ScalarMultDistributes", func(t *testing.T) {
		a, b := random(t, g), random(t, g)
		lhs := g.NewPoint().ScalarMult(g.NewScalar().Add(a, b), g.Generator())
		rhs := g.NewPoint().Add(
			g.NewPoint().ScalarMult(a, g.Generator()),
			g.NewPoint().ScalarMult(b, g.Generator()),
		)
		assert.True(t, lhs.Equal(rhs), "(a+b)G != aG+bG")
	})

	t.Run("BytesRoundtrip", func(t *testing.T) {
		P := g.NewPoint().ScalarMult(random(t, g), g.Generator())
		enc := P.Bytes()
		require.Len(t, enc, g.PointLength())
		restored, err := g.NewPoint().SetBytes(enc)
		require.NoError(t, err)
		assert.True(t, restored.Equal(P))
	})

	t.Run("IdentityRoundtrip", func(t *testing.T) {
		id := g.NewPoint()
		restored, err := g.NewPoint().SetBytes(id.Bytes())
		require.NoError(t, err)
		assert.True(t, restored.IsIdentity())
	})

	t.Run("SetBytesRejectsGarbage", func(t *testing.T) {
		_, err := g.NewPoint().SetBytes([]byte{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("IsIdentity", func(t *testing.T) {
		assert.True(t, g.NewPoint().IsIdentity())
		assert.False(t, g.Generator().IsIdentity())
	})
}

func testHash(t *testing.T, g group.Group) {
	data := []byte("frost")

	a, err := g.HashToScalar("domain-a", data)
	require.NoError(t, err)
	again, err := g.HashToScalar("domain-a", data)
	require.NoError(t, err)
	b, err := g.HashToScalar("domain-b", data)
	require.NoError(t, err)

	assert.True(t, a.Equal(again), "hash must be deterministic")
	assert.False(t, a.Equal(b), "domains must separate outputs")
	assert.False(t, bytes.Equal(a.Bytes(), make([]byte, g.ScalarLength())))
}
