package bjj

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/group/grouptest"
)

func TestGroupConformance(t *testing.T) {
	grouptest.Run(t, &BJJ{})
}

func TestScalarBytesArePadded(t *testing.T) {
	g := &BJJ{}
	s, err := g.NewScalar().SetBytes([]byte{7})
	require.NoError(t, err)

	enc := s.Bytes()
	assert.Len(t, enc, 32)
	assert.Equal(t, byte(7), enc[31])
}

func TestSetBytesRejectsLowOrderPoint(t *testing.T) {
	g := &BJJ{}

	// (0, -1) lies on the curve but has order 2.
	var p Point
	p.inner.X.SetZero()
	p.inner.Y.SetOne()
	p.inner.Y.Neg(&p.inner.Y)
	require.True(t, p.inner.IsOnCurve())

	_, err := g.NewPoint().SetBytes(p.Bytes())
	assert.ErrorIs(t, err, errNotInSubgroup)
}

func TestGeneratorHasPrimeOrder(t *testing.T) {
	g := &BJJ{}
	s, err := g.RandomScalar(rand.Reader)
	require.NoError(t, err)

	P := g.NewPoint().ScalarMult(s, g.Generator())
	restored, err := g.NewPoint().SetBytes(P.Bytes())
	require.NoError(t, err)
	assert.True(t, restored.Equal(P))
}
