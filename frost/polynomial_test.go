package frost

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/bjj"
	"github.com/f3rmion/frostkit/group"
)

func TestPolynomialEval(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := New(g, 3, 3)
	require.NoError(t, err)

	// p(x) = 3 + 2x + x^2
	p, err := NewPolynomial(g, []group.Scalar{f.scalarFromInt(3), f.scalarFromInt(2), f.scalarFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Degree())

	tests := []struct{ x, want int }{
		{1, 6},
		{2, 11},
		{5, 38},
	}
	for _, tt := range tests {
		y, err := p.Eval(f.scalarFromInt(tt.x))
		require.NoError(t, err)
		assert.True(t, y.Equal(f.scalarFromInt(tt.want)), "p(%d)", tt.x)
	}

	_, err = p.Eval(g.NewScalar())
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = NewPolynomial(g, nil)
	assert.Error(t, err)
}

func TestCommitmentMatchesEvaluation(t *testing.T) {
	g := &bjj.BJJ{}
	p, err := randomPolynomial(g, 4, rand.Reader)
	require.NoError(t, err)
	commitment := p.Commit()
	require.Len(t, commitment, 4)

	for i := 0; i < 5; i++ {
		x, err := g.RandomScalar(rand.Reader)
		require.NoError(t, err)
		y, err := p.Eval(x)
		require.NoError(t, err)

		want := g.NewPoint().ScalarMult(y, g.Generator())
		assert.True(t, evalCommitment(g, commitment, x).Equal(want))
	}
}

func TestPolynomialZeroize(t *testing.T) {
	g := &bjj.BJJ{}
	p, err := randomPolynomial(g, 2, rand.Reader)
	require.NoError(t, err)
	coeffs := append([]group.Scalar(nil), p.coeffs...)

	p.zeroize()
	for _, c := range coeffs {
		assert.True(t, c.IsZero())
	}
}
